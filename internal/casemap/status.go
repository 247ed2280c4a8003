// Package casemap turns per-city case statistics into map markers, grid
// clusters, color intensities and legend scales for the public case map.
//
// Every function in this package is pure: it takes its inputs by value or
// through the read-only Gazetteer and returns freshly allocated results.
package casemap

import (
	"strings"

	"github.com/rotisserie/eris"
)

// ErrUnknownStatus is returned when a status filter string is not recognized.
var ErrUnknownStatus = eris.New("casemap: unknown status")

// ErrUnknownCategory is returned when a color category string is not recognized.
var ErrUnknownCategory = eris.New("casemap: unknown category")

// Status is the active status filter of the map.
type Status int

const (
	// StatusAll counts missing and found cases together.
	StatusAll Status = iota
	// StatusMissing counts only people still missing.
	StatusMissing
	// StatusFound counts only people already located.
	StatusFound
)

// Category selects the color palette used for intensities.
type Category int

const (
	// CategoryTotal is the yellow → orange → red palette.
	CategoryTotal Category = iota
	// CategoryMissing is the pale red → dark red palette.
	CategoryMissing
	// CategoryFound is the pale green → dark green palette.
	CategoryFound
)

// ParseStatus is the single translation point between the police API
// vocabulary (TODOS, DESAPARECIDO, LOCALIZADO), the English query values
// (ALL, MISSING, FOUND) and Status. Matching is case-insensitive; an empty
// string means StatusAll.
func ParseStatus(s string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ALL", "TODOS", "TOTAL":
		return StatusAll, nil
	case "MISSING", "DESAPARECIDO":
		return StatusMissing, nil
	case "FOUND", "LOCALIZADO":
		return StatusFound, nil
	default:
		return StatusAll, eris.Wrapf(ErrUnknownStatus, "casemap: parse status %q", s)
	}
}

// String returns the English name of the status.
func (s Status) String() string {
	switch s {
	case StatusMissing:
		return "MISSING"
	case StatusFound:
		return "FOUND"
	default:
		return "ALL"
	}
}

// APIValue returns the police API vocabulary for the status. StatusAll has
// no API value and returns "".
func (s Status) APIValue() string {
	switch s {
	case StatusMissing:
		return "DESAPARECIDO"
	case StatusFound:
		return "LOCALIZADO"
	default:
		return ""
	}
}

// Category returns the color palette matching the filter.
func (s Status) Category() Category {
	switch s {
	case StatusMissing:
		return CategoryMissing
	case StatusFound:
		return CategoryFound
	default:
		return CategoryTotal
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseCategory parses TOTAL, MISSING or FOUND (and the police API
// equivalents) into a Category.
func ParseCategory(s string) (Category, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "TOTAL", "ALL", "TODOS":
		return CategoryTotal, nil
	case "MISSING", "DESAPARECIDO":
		return CategoryMissing, nil
	case "FOUND", "LOCALIZADO":
		return CategoryFound, nil
	default:
		return CategoryTotal, eris.Wrapf(ErrUnknownCategory, "casemap: parse category %q", s)
	}
}

// String returns the name of the category.
func (c Category) String() string {
	switch c {
	case CategoryMissing:
		return "MISSING"
	case CategoryFound:
		return "FOUND"
	default:
		return "TOTAL"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
