package casemap

import "sort"

// Legend describes the value scale shown next to the map.
type Legend struct {
	Min       int       `json:"min"`
	Mid       int       `json:"mid"`
	Max       int       `json:"max"`
	IsUniform bool      `json:"is_uniform"`
	Title     string    `json:"title"`
	Gradient  [3]string `json:"gradient"`
}

// LegendScale derives min, mid and max from the markers' counts for the
// category: missing, found, or their sum for the total. Markers whose count
// is zero are skipped. It returns nil when no marker has a positive count.
func LegendScale(markers []Marker, c Category) *Legend {
	values := make([]int, 0, len(markers))
	for _, m := range markers {
		if v := m.categoryCount(c); v > 0 {
			values = append(values, v)
		}
	}
	return scaleOf(values, c)
}

func (m Marker) categoryCount(c Category) int {
	switch c {
	case CategoryMissing:
		return m.MissingCount
	case CategoryFound:
		return m.FoundCount
	default:
		return m.MissingCount + m.FoundCount
	}
}

// LegendFor computes the same scale directly from city statistics, using the
// count the filter selects. Cities do not need a gazetteer entry.
func LegendFor(cities []CityCaseStats, filter Status) *Legend {
	values := make([]int, 0, len(cities))
	for _, c := range cities {
		if v := c.BaseValue(filter); v > 0 {
			values = append(values, v)
		}
	}
	return scaleOf(values, filter.Category())
}

func scaleOf(values []int, c Category) *Legend {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)

	l := &Legend{
		Min:      sorted[0],
		Max:      sorted[len(sorted)-1],
		Title:    legendTitle(c),
		Gradient: legendGradient(c),
	}
	if l.Min == l.Max {
		l.Mid = l.Min
		l.IsUniform = true
		return l
	}
	// sorted[n/2], not interpolated.
	l.Mid = sorted[len(sorted)/2]
	return l
}

func legendTitle(c Category) string {
	switch c {
	case CategoryMissing:
		return "Intensidade (Desaparecidos)"
	case CategoryFound:
		return "Intensidade (Localizados)"
	default:
		return "Intensidade (Total)"
	}
}

// legendGradient is the CSS gradient of the legend bar. Its dark stops are
// one shade lighter than the marker palettes.
func legendGradient(c Category) [3]string {
	switch c {
	case CategoryMissing:
		return [3]string{"#fee2e2", "#f87171", "#dc2626"}
	case CategoryFound:
		return [3]string{"#dcfce7", "#4ade80", "#16a34a"}
	default:
		return [3]string{"#facc15", "#f97316", "#dc2626"}
	}
}
