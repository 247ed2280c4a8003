package casemap

import (
	"github.com/twpayne/go-geom"
)

// DefaultRecentCases is how many cases a city detail lists by default.
const DefaultRecentCases = 10

// MapView is everything the map renderer needs for one filter selection.
type MapView struct {
	Status       Status    `json:"status"`
	Category     Category  `json:"category"`
	Markers      []Marker  `json:"markers"`
	Clustered    bool      `json:"clustered"`
	Clusters     []Cluster `json:"clusters"`
	Legend       *Legend   `json:"legend"`
	Empty        bool      `json:"empty"`
	EmptyMessage string    `json:"empty_message,omitempty"`
	Bounds       *Extent   `json:"bounds,omitempty"`
}

// FilterCities keeps the cities that have at least one case of the selected
// status. StatusAll keeps every city.
func FilterCities(cities []CityCaseStats, filter Status) []CityCaseStats {
	out := make([]CityCaseStats, 0, len(cities))
	for _, c := range cities {
		switch filter {
		case StatusMissing:
			if c.MissingCount <= 0 {
				continue
			}
		case StatusFound:
			if c.FoundCount <= 0 {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// BuildView filters the cities, builds markers, clusters them when dense and
// computes the legend and bounds of what will be drawn.
func BuildView(cities []CityCaseStats, filter Status, g *Gazetteer) MapView {
	filtered := FilterCities(cities, filter)
	markers := BuildMarkers(filtered, filter, g)
	agg := Aggregate(markers)

	v := MapView{
		Status:    filter,
		Category:  filter.Category(),
		Markers:   markers,
		Clustered: agg.IsClustered,
		Clusters:  agg.Clusters,
		Legend:    LegendScale(markers, filter.Category()),
	}
	if len(markers) == 0 {
		v.Empty = true
		v.EmptyMessage = emptyMessage(filter)
		return v
	}
	v.Bounds = markerBounds(markers)
	return v
}

func emptyMessage(filter Status) string {
	switch filter {
	case StatusMissing:
		return "Nenhuma cidade com casos de desaparecidos."
	case StatusFound:
		return "Nenhuma cidade com casos de localizados."
	default:
		return "Nenhuma cidade com casos."
	}
}

func markerBounds(markers []Marker) *Extent {
	b := geom.NewBounds(geom.XY)
	for _, m := range markers {
		b.Extend(geom.NewPointFlat(geom.XY, []float64{m.Lon, m.Lat}))
	}
	if b.IsEmpty() {
		return nil
	}
	return &Extent{
		North: b.Max(1),
		South: b.Min(1),
		West:  b.Min(0),
		East:  b.Max(0),
	}
}

// CityDetail returns the statistics of the named city with at most limit
// cases. A non-positive limit uses DefaultRecentCases.
func CityDetail(cities []CityCaseStats, name string, limit int) (CityCaseStats, bool) {
	if limit <= 0 {
		limit = DefaultRecentCases
	}
	for _, c := range cities {
		if c.City != name {
			continue
		}
		detail := c
		if len(c.Cases) > limit {
			detail.Cases = append([]CaseSummary(nil), c.Cases[:limit]...)
		}
		return detail, true
	}
	return CityCaseStats{}, false
}
