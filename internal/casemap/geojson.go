package casemap

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// FeatureCollection renders the view as GeoJSON points. A clustered view
// emits one feature per cluster, otherwise one per marker.
func FeatureCollection(v MapView) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}

	if v.Clustered {
		for _, c := range v.Clusters {
			fc.Features = append(fc.Features, &geojson.Feature{
				ID:       "cluster-" + c.Cell,
				Geometry: geom.NewPointFlat(geom.XY, []float64{c.Lon, c.Lat}),
				Properties: map[string]any{
					"kind":        "cluster",
					"count":       c.Count,
					"value_sum":   c.ValueSum,
					"missing_sum": c.MissingSum,
					"found_sum":   c.FoundSum,
					"intensity":   c.Intensity,
					"color":       ColorForIntensity(c.Intensity, v.Category),
					"radius":      ClusterRadius(c.Intensity),
					"cities":      c.Cities,
				},
			})
		}
	} else {
		for _, m := range v.Markers {
			fc.Features = append(fc.Features, &geojson.Feature{
				ID:       m.City,
				Geometry: geom.NewPointFlat(geom.XY, []float64{m.Lon, m.Lat}),
				Properties: map[string]any{
					"kind":          "marker",
					"city":          m.City,
					"missing_count": m.MissingCount,
					"found_count":   m.FoundCount,
					"base_value":    m.BaseValue,
					"intensity":     m.Intensity,
					"color":         ColorForIntensity(m.Intensity, v.Category),
					"radius":        MarkerRadius(m.Intensity),
				},
			})
		}
	}

	if v.Bounds != nil {
		fc.BBox = v.Bounds.Geom()
	}
	return fc
}

// MarshalGeoJSON encodes the view as a GeoJSON FeatureCollection.
func MarshalGeoJSON(v MapView) ([]byte, error) {
	data, err := FeatureCollection(v).MarshalJSON()
	if err != nil {
		return nil, eris.Wrap(err, "casemap: marshal geojson")
	}
	return data, nil
}
