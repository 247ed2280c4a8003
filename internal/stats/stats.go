// Package stats computes the advanced statistics dashboard from the police
// API totals and recent case samples.
package stats

import (
	"context"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/pjc-mt/casemap/pkg/abitus"
)

// SampleSize is how many recent persons of each status are inspected.
const SampleSize = 100

const hoursPerYear = 365 * 24

// Estimated share of located persons per gender and per age bracket. The
// API publishes only the located total, so the split is an estimate.
var (
	foundGenderShare = map[string]float64{abitus.SexMale: 0.6, abitus.SexFemale: 0.4}
	foundAgeShare    = []float64{0.3, 0.4, 0.2, 0.1}
)

// GenderCount is the missing and located count of one gender.
type GenderCount struct {
	Missing int `json:"missing"`
	Found   int `json:"found"`
}

// AgeBracket is the missing and located count of one age bracket.
type AgeBracket struct {
	Label   string `json:"label"`
	Missing int    `json:"missing"`
	Found   int    `json:"found"`
}

// HourPoint is one hour of the trend chart.
type HourPoint struct {
	Hour    string `json:"hour"`
	Missing int    `json:"missing"`
	Found   int    `json:"found"`
}

// Advanced is the statistics dashboard.
type Advanced struct {
	TotalMissing   int                    `json:"total_missing"`
	TotalFound     int                    `json:"total_found"`
	MissingPerHour float64                `json:"missing_per_hour"`
	FoundPerHour   float64                `json:"found_per_hour"`
	ByGender       map[string]GenderCount `json:"by_gender"`
	ByAge          []AgeBracket           `json:"by_age"`
	Trend          []HourPoint            `json:"trend"`
	GeneratedAt    time.Time              `json:"generated_at"`
}

// Service computes dashboards from the police API.
type Service struct {
	client abitus.Client
}

// NewService creates a statistics service.
func NewService(client abitus.Client) *Service {
	return &Service{client: client}
}

// Basic returns the published totals.
func (s *Service) Basic(ctx context.Context) (*abitus.Statistics, error) {
	st, err := s.client.Statistics(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "stats: basic")
	}
	return st, nil
}

// Advanced fetches the totals and the recent missing and located samples
// concurrently and computes the dashboard as of now.
func (s *Service) Advanced(ctx context.Context, now time.Time) (*Advanced, error) {
	var (
		totals  *abitus.Statistics
		missing *abitus.Page
		found   *abitus.Page
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = s.client.Statistics(gctx)
		return eris.Wrap(err, "stats: totals")
	})
	g.Go(func() error {
		var err error
		missing, err = s.client.SearchPersons(gctx, abitus.SearchFilter{Status: abitus.StatusMissing, PerPage: SampleSize})
		return eris.Wrap(err, "stats: missing sample")
	})
	g.Go(func() error {
		var err error
		found, err = s.client.SearchPersons(gctx, abitus.SearchFilter{Status: abitus.StatusFound, PerPage: SampleSize})
		return eris.Wrap(err, "stats: found sample")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var t abitus.Statistics
	if totals != nil {
		t = *totals
	}
	return Compute(t, persons(missing), persons(found), now), nil
}

func persons(p *abitus.Page) []abitus.Person {
	if p == nil {
		return nil
	}
	return p.Persons
}

// Compute builds the dashboard from totals and samples. It is separate from
// Advanced so it can run on fixed inputs.
func Compute(totals abitus.Statistics, missing, found []abitus.Person, now time.Time) *Advanced {
	a := &Advanced{
		TotalMissing: totals.Missing,
		TotalFound:   totals.Found,
		FoundPerHour: round2(float64(totals.Found) / hoursPerYear),
		ByGender:     make(map[string]GenderCount, 2),
		GeneratedAt:  now,
	}

	since := now.Add(-24 * time.Hour)
	recent := 0
	for _, p := range missing {
		if t := p.MissingSinceTime(); !t.IsZero() && !t.Before(since) {
			recent++
		}
	}
	a.MissingPerHour = round2(float64(recent) / 24)

	for _, sex := range []string{abitus.SexMale, abitus.SexFemale} {
		gc := GenderCount{Found: int(math.Floor(float64(totals.Found) * foundGenderShare[sex]))}
		for _, p := range missing {
			if p.Sex == sex {
				gc.Missing++
			}
		}
		a.ByGender[sex] = gc
	}

	a.ByAge = []AgeBracket{{Label: "0-17 anos"}, {Label: "18-30 anos"}, {Label: "31-50 anos"}, {Label: "50+ anos"}}
	for _, p := range missing {
		a.ByAge[ageBracket(p.Age)].Missing++
	}
	for i := range a.ByAge {
		a.ByAge[i].Found = int(math.Floor(float64(totals.Found) * foundAgeShare[i]))
	}

	a.Trend = hourlyTrend(missing, found, now)
	return a
}

func ageBracket(age int) int {
	switch {
	case age < 18:
		return 0
	case age <= 30:
		return 1
	case age <= 50:
		return 2
	default:
		return 3
	}
}

// hourlyTrend counts disappearances and locations in each of the 24 whole
// hours ending with the current one, oldest first.
func hourlyTrend(missing, found []abitus.Person, now time.Time) []HourPoint {
	end := now.Truncate(time.Hour).Add(time.Hour)
	start := end.Add(-24 * time.Hour)

	points := make([]HourPoint, 24)
	for i := range points {
		points[i].Hour = start.Add(time.Duration(i) * time.Hour).In(abitus.Cuiaba).Format("15:04")
	}
	bucket := func(t time.Time) int {
		if t.IsZero() || t.Before(start) || !t.Before(end) {
			return -1
		}
		return int(t.Sub(start) / time.Hour)
	}
	for _, p := range missing {
		if i := bucket(p.MissingSinceTime()); i >= 0 {
			points[i].Missing++
		}
	}
	for _, p := range found {
		if i := bucket(p.FoundAtTime()); i >= 0 {
			points[i].Found++
		}
	}
	return points
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
