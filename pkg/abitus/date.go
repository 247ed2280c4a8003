package abitus

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Cuiaba is the fixed UTC-4 offset of Mato Grosso, used for API timestamps
// that carry no zone.
var Cuiaba = time.FixedZone("America/Cuiaba", -4*60*60)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// ParseDate parses the date formats the police API has been seen to return.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, eris.New("abitus: empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, Cuiaba); err == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Errorf("abitus: unrecognized date %q", s)
}
