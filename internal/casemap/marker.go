package casemap

import (
	"time"

	"go.uber.org/zap"
)

// CaseSummary is one person case attached to a city.
type CaseSummary struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Age          int       `json:"age"`
	Sex          string    `json:"sex"`
	Status       Status    `json:"status"`
	MissingSince time.Time `json:"missing_since"`
}

// CityCaseStats holds the case counts of one city as reported upstream.
type CityCaseStats struct {
	City         string        `json:"city"`
	State        string        `json:"state"`
	MissingCount int           `json:"missing_count"`
	FoundCount   int           `json:"found_count"`
	Cases        []CaseSummary `json:"cases"`
}

// BaseValue returns the count selected by the status filter.
func (c CityCaseStats) BaseValue(filter Status) int {
	switch filter {
	case StatusMissing:
		return c.MissingCount
	case StatusFound:
		return c.FoundCount
	default:
		return c.MissingCount + c.FoundCount
	}
}

// Marker is one renderable city point under the active filter.
type Marker struct {
	City         string  `json:"city"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	MissingCount int     `json:"missing_count"`
	FoundCount   int     `json:"found_count"`
	BaseValue    int     `json:"base_value"`
	Intensity    float64 `json:"intensity"`
}

// Total returns missing plus found.
func (m Marker) Total() int {
	return m.MissingCount + m.FoundCount
}

// BuildMarkers joins city statistics with the gazetteer and normalizes each
// marker's base value against the largest one in the batch.
//
// Cities absent from the gazetteer are dropped silently, as are cities whose
// base value is zero. The result is never nil and keeps the input order.
func BuildMarkers(cities []CityCaseStats, filter Status, g *Gazetteer) []Marker {
	markers := make([]Marker, 0, len(cities))
	for _, c := range cities {
		coord, ok := g.Lookup(c.City)
		if !ok {
			logGazetteerMiss(g, c.City)
			continue
		}

		base := c.BaseValue(filter)
		if base <= 0 {
			continue
		}

		markers = append(markers, Marker{
			City:         c.City,
			Lat:          coord.Lat,
			Lon:          coord.Lon,
			MissingCount: c.MissingCount,
			FoundCount:   c.FoundCount,
			BaseValue:    base,
		})
	}

	maxBase := 1
	for _, m := range markers {
		if m.BaseValue > maxBase {
			maxBase = m.BaseValue
		}
	}
	for i := range markers {
		markers[i].Intensity = float64(markers[i].BaseValue) / float64(maxBase)
	}
	return markers
}

func logGazetteerMiss(g *Gazetteer, city string) {
	fields := []zap.Field{zap.String("city", city)}
	if suggestion, ok := g.Suggest(city); ok {
		fields = append(fields, zap.String("suggestion", suggestion))
	}
	zap.L().Debug("casemap: city not in gazetteer", fields...)
}
