package abitus

import (
	"math"
	"time"
)

// Police API status vocabulary.
const (
	StatusMissing = "DESAPARECIDO"
	StatusFound   = "LOCALIZADO"
)

// Police API sex vocabulary.
const (
	SexMale   = "MASCULINO"
	SexFemale = "FEMININO"
)

// Occurrence is the last police occurrence attached to a person.
type Occurrence struct {
	OccurrenceID int64  `json:"occurrence_id"`
	MissingSince string `json:"missing_since"`
	FoundAt      string `json:"found_at,omitempty"`
	FoundAlive   bool   `json:"found_alive"`
	Place        string `json:"place,omitempty"`
}

// Person is a missing or located person as published by the police API.
type Person struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	Age            int         `json:"age"`
	Sex            string      `json:"sex"`
	Alive          bool        `json:"alive"`
	PhotoURL       string      `json:"photo_url,omitempty"`
	Status         string      `json:"status"`
	MissingSince   string      `json:"missing_since,omitempty"`
	Place          string      `json:"place,omitempty"`
	LastOccurrence *Occurrence `json:"last_occurrence,omitempty"`
}

// Found reports whether the person has been located.
func (p Person) Found() bool {
	return p.Status == StatusFound
}

// MissingSinceTime parses MissingSince. The zero time is returned when the
// date is absent or unparsable.
func (p Person) MissingSinceTime() time.Time {
	t, err := ParseDate(p.MissingSince)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FoundAtTime parses the located date of the last occurrence.
func (p Person) FoundAtTime() time.Time {
	if p.LastOccurrence == nil {
		return time.Time{}
	}
	t, err := ParseDate(p.LastOccurrence.FoundAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Page is one page of a person search.
type Page struct {
	Persons    []Person `json:"persons"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	PerPage    int      `json:"per_page"`
	TotalPages int      `json:"total_pages"`
}

// DefaultPerPage is the page size used when a filter leaves it unset.
const DefaultPerPage = 10

// SearchFilter narrows a person search. Zero values are left out of the
// query string.
type SearchFilter struct {
	Name    string
	MinAge  *int
	MaxAge  *int
	Sex     string
	Status  string
	Page    int
	PerPage int
}

// Statistics are the published case totals.
type Statistics struct {
	Missing int `json:"missing"`
	Found   int `json:"found"`
}

// OccurrenceInfo is a citizen tip attached to an occurrence.
type OccurrenceInfo struct {
	ID           int64    `json:"id"`
	OccurrenceID int64    `json:"occurrence_id"`
	Info         string   `json:"info"`
	Date         string   `json:"date"`
	Attachments  []string `json:"attachments"`
}

// Reason is an occurrence reason of the police catalog.
type Reason struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
}

// Attachment is a file sent with a tip.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Tip is a new piece of information about an occurrence.
type Tip struct {
	OccurrenceID int64
	Info         string
	Description  string
	// Date is YYYY-MM-DD; empty means today.
	Date  string
	Files []Attachment
}

// Wire formats of the police API.

type apiOccurrence struct {
	MissingSince string  `json:"dtDesaparecimento"`
	FoundAt      *string `json:"dataLocalizacao"`
	FoundAlive   bool    `json:"encontradoVivo"`
	Place        string  `json:"localDesaparecimentoConcat"`
	OccurrenceID int64   `json:"ocoId"`
}

type apiPerson struct {
	ID         int64          `json:"id"`
	Name       string         `json:"nome"`
	Age        int            `json:"idade"`
	Sex        string         `json:"sexo"`
	Alive      bool           `json:"vivo"`
	PhotoURL   string         `json:"urlFoto"`
	Photo      string         `json:"foto"`
	Occurrence *apiOccurrence `json:"ultimaOcorrencia"`
}

type apiPage struct {
	Content       []apiPerson `json:"content"`
	TotalElements int         `json:"totalElements"`
	Total         int         `json:"total"`
	Number        int         `json:"number"`
	Size          int         `json:"size"`
	TotalPages    int         `json:"totalPages"`
}

type apiStatistics struct {
	Missing int `json:"quantPessoasDesaparecidas"`
	Found   int `json:"quantPessoasEncontradas"`
}

type apiOccurrenceInfo struct {
	OccurrenceID int64    `json:"ocoId"`
	Info         string   `json:"informacao"`
	Date         string   `json:"data"`
	ID           int64    `json:"id"`
	Attachments  []string `json:"anexos"`
}

type apiReason struct {
	ID          int64  `json:"id"`
	Description string `json:"descricao"`
}

// person maps the wire format. A person is located iff the last occurrence
// carries a non-empty located date.
func (a apiPerson) person() Person {
	p := Person{
		ID:       a.ID,
		Name:     a.Name,
		Age:      a.Age,
		Sex:      a.Sex,
		Alive:    a.Alive,
		PhotoURL: a.PhotoURL,
		Status:   StatusMissing,
	}
	if p.PhotoURL == "" {
		p.PhotoURL = a.Photo
	}
	if o := a.Occurrence; o != nil {
		occ := &Occurrence{
			OccurrenceID: o.OccurrenceID,
			MissingSince: o.MissingSince,
			FoundAlive:   o.FoundAlive,
			Place:        o.Place,
		}
		if o.FoundAt != nil && *o.FoundAt != "" {
			occ.FoundAt = *o.FoundAt
			p.Status = StatusFound
		}
		p.LastOccurrence = occ
		p.MissingSince = o.MissingSince
		p.Place = o.Place
	}
	return p
}

func (a apiPage) page(f SearchFilter) *Page {
	p := &Page{
		Persons: make([]Person, 0, len(a.Content)),
		Total:   a.TotalElements,
		Page:    a.Number,
		PerPage: a.Size,
	}
	for _, ap := range a.Content {
		p.Persons = append(p.Persons, ap.person())
	}
	if p.Total == 0 {
		p.Total = a.Total
	}
	if p.Page == 0 {
		p.Page = f.Page
	}
	if p.PerPage == 0 {
		p.PerPage = f.perPage()
	}
	p.TotalPages = a.TotalPages
	if p.TotalPages == 0 && p.PerPage > 0 {
		p.TotalPages = int(math.Ceil(float64(p.Total) / float64(p.PerPage)))
	}
	return p
}

func (f SearchFilter) perPage() int {
	if f.PerPage <= 0 {
		return DefaultPerPage
	}
	return f.PerPage
}
