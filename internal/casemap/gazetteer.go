package casemap

import (
	"bytes"
	_ "embed"
	"io"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"gopkg.in/yaml.v3"
)

//go:embed gazetteer_mt.yaml
var defaultGazetteerYAML []byte

// CityCoordinate is one gazetteer entry.
type CityCoordinate struct {
	City string  `json:"city" yaml:"city"`
	Lat  float64 `json:"lat" yaml:"lat"`
	Lon  float64 `json:"lon" yaml:"lon"`
}

// Extent is a lat/lon bounding box in degrees.
type Extent struct {
	North float64 `json:"north" yaml:"north"`
	South float64 `json:"south" yaml:"south"`
	West  float64 `json:"west" yaml:"west"`
	East  float64 `json:"east" yaml:"east"`
}

// Geom returns the extent as go-geom bounds in (lon, lat) order.
func (e Extent) Geom() *geom.Bounds {
	return geom.NewBounds(geom.XY).Set(e.West, e.South, e.East, e.North)
}

// IsZero reports whether the extent was never set.
func (e Extent) IsZero() bool {
	return e == Extent{}
}

// Gazetteer is an immutable city name → coordinate table. It is built once
// at startup and shared read-only between requests.
type Gazetteer struct {
	state  string
	extent Extent
	coords map[string]CityCoordinate
	folded map[string]string
}

type gazetteerFile struct {
	State  string           `yaml:"state"`
	Bounds Extent           `yaml:"bounds"`
	Cities []CityCoordinate `yaml:"cities"`
}

// DefaultGazetteer returns the bundled Mato Grosso gazetteer.
func DefaultGazetteer() *Gazetteer {
	g, err := LoadGazetteer(bytes.NewReader(defaultGazetteerYAML))
	if err != nil {
		// The bundled file is covered by tests.
		panic(err)
	}
	return g
}

// LoadGazetteer parses a YAML gazetteer. City names must be unique and
// non-empty and coordinates must be valid degrees.
func LoadGazetteer(r io.Reader) (*Gazetteer, error) {
	var f gazetteerFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, eris.Wrap(err, "casemap: decode gazetteer")
	}
	return NewGazetteer(f.State, f.Bounds, f.Cities)
}

// NewGazetteer builds a gazetteer from explicit entries.
func NewGazetteer(state string, extent Extent, cities []CityCoordinate) (*Gazetteer, error) {
	g := &Gazetteer{
		state:  state,
		extent: extent,
		coords: make(map[string]CityCoordinate, len(cities)),
		folded: make(map[string]string, len(cities)),
	}
	for i, c := range cities {
		if strings.TrimSpace(c.City) == "" {
			return nil, eris.Errorf("casemap: gazetteer entry %d has no city name", i)
		}
		if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
			return nil, eris.Errorf("casemap: gazetteer entry %q has invalid coordinates (%f, %f)", c.City, c.Lat, c.Lon)
		}
		if _, dup := g.coords[c.City]; dup {
			return nil, eris.Errorf("casemap: duplicate gazetteer entry %q", c.City)
		}
		g.coords[c.City] = c
		g.folded[foldName(c.City)] = c.City
	}
	return g, nil
}

// Lookup returns the coordinate for an exact, case-sensitive city name.
func (g *Gazetteer) Lookup(city string) (CityCoordinate, bool) {
	if g == nil {
		return CityCoordinate{}, false
	}
	c, ok := g.coords[city]
	return c, ok
}

// Suggest returns the gazetteer name that matches city once accents, case
// and surrounding spaces are ignored. It is a diagnostic only: Lookup never
// uses it.
func (g *Gazetteer) Suggest(city string) (string, bool) {
	if g == nil {
		return "", false
	}
	name, ok := g.folded[foldName(city)]
	if !ok || name == city {
		return "", false
	}
	return name, true
}

// Len returns the number of cities.
func (g *Gazetteer) Len() int {
	if g == nil {
		return 0
	}
	return len(g.coords)
}

// Cities returns all entries sorted by name.
func (g *Gazetteer) Cities() []CityCoordinate {
	if g == nil {
		return nil
	}
	out := make([]CityCoordinate, 0, len(g.coords))
	for _, c := range g.coords {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].City < out[j].City })
	return out
}

// State returns the state abbreviation the gazetteer covers.
func (g *Gazetteer) State() string {
	if g == nil {
		return ""
	}
	return g.state
}

// Extent returns the configured bounding box of the state.
func (g *Gazetteer) Extent() Extent {
	if g == nil {
		return Extent{}
	}
	return g.extent
}
