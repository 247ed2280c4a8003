package mapdata

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pjc-mt/casemap/internal/casemap"
	"github.com/pjc-mt/casemap/pkg/abitus"
)

// ParseCity extracts the city and state from a last-seen place such as
// "Rua X, 10 - Centro - Cuiabá/MT" or "Sinop/MT". The state is empty when
// the place carries none.
func ParseCity(place string) (city, state string, ok bool) {
	place = strings.TrimSpace(place)
	if i := strings.LastIndex(place, " - "); i >= 0 {
		place = strings.TrimSpace(place[i+3:])
	}
	if i := strings.LastIndex(place, "/"); i >= 0 {
		state = strings.ToUpper(strings.TrimSpace(place[i+1:]))
		place = strings.TrimSpace(place[:i])
	}
	if place == "" {
		return "", "", false
	}
	return place, state, true
}

// GroupByCity counts persons per last-seen city. Persons without a
// parsable city or with an unknown status are skipped. Cities come out
// sorted by name and each city's cases newest first.
func GroupByCity(persons []abitus.Person) []casemap.CityCaseStats {
	byCity := make(map[string]*casemap.CityCaseStats)
	skipped := 0

	for _, p := range persons {
		city, state, ok := ParseCity(p.Place)
		if !ok {
			skipped++
			continue
		}
		status, err := casemap.ParseStatus(p.Status)
		if err != nil || status == casemap.StatusAll {
			skipped++
			continue
		}

		cs, ok := byCity[city]
		if !ok {
			cs = &casemap.CityCaseStats{City: city, State: state}
			byCity[city] = cs
		}
		if cs.State == "" {
			cs.State = state
		}
		if status == casemap.StatusFound {
			cs.FoundCount++
		} else {
			cs.MissingCount++
		}
		cs.Cases = append(cs.Cases, casemap.CaseSummary{
			ID:           p.ID,
			Name:         p.Name,
			Age:          p.Age,
			Sex:          p.Sex,
			Status:       status,
			MissingSince: p.MissingSinceTime(),
		})
	}

	if skipped > 0 {
		zap.L().Debug("mapdata: persons without city", zap.Int("skipped", skipped), zap.Int("total", len(persons)))
	}

	out := make([]casemap.CityCaseStats, 0, len(byCity))
	for _, cs := range byCity {
		sort.SliceStable(cs.Cases, func(i, j int) bool {
			return cs.Cases[i].MissingSince.After(cs.Cases[j].MissingSince)
		})
		out = append(out, *cs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].City < out[j].City })
	return out
}
