package casemap

import (
	"fmt"
	"math"
	"strconv"
)

// rgb is a color with integer channels in [0,255].
type rgb struct {
	r, g, b int
}

// palette is a three-stop gradient: low, mid, high.
type palette [3]string

var palettes = map[Category]palette{
	CategoryTotal:   {"#facc15", "#f97316", "#dc2626"},
	CategoryMissing: {"#fee2e2", "#f87171", "#b91c1c"},
	CategoryFound:   {"#dcfce7", "#4ade80", "#15803d"},
}

// Gradient returns the three gradient stops of a category. Unknown
// categories use the TOTAL palette.
func Gradient(c Category) [3]string {
	p, ok := palettes[c]
	if !ok {
		p = palettes[CategoryTotal]
	}
	return p
}

// ColorForIntensity maps an intensity to a "#rrggbb" color on the
// category's gradient. Intensity is clamped to [0,1]: the lower half
// interpolates stop 0 → stop 1, the upper half stop 1 → stop 2.
func ColorForIntensity(intensity float64, c Category) string {
	t := clamp01(intensity)
	stops := Gradient(c)

	if t < 0.5 {
		return mix(stops[0], stops[1], t/0.5)
	}
	return mix(stops[1], stops[2], (t-0.5)/0.5)
}

// MarkerRadius is the circle radius in pixels of an individual city marker.
func MarkerRadius(intensity float64) float64 {
	return 8 + clamp01(intensity)*18
}

// ClusterRadius is the circle radius in pixels of an aggregated cluster.
func ClusterRadius(intensity float64) float64 {
	return (30 + clamp01(intensity)*26) / 2
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func mix(a, b string, t float64) string {
	ca, cb := parseHex(a), parseHex(b)
	return formatHex(rgb{
		r: lerpChannel(ca.r, cb.r, t),
		g: lerpChannel(ca.g, cb.g, t),
		b: lerpChannel(ca.b, cb.b, t),
	})
}

// lerpChannel rounds half toward +Inf so results match the web client.
func lerpChannel(a, b int, t float64) int {
	v := math.Floor(float64(a) + float64(b-a)*t + 0.5)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return int(v)
}

// parseHex expects a "#rrggbb" literal from the palettes table.
func parseHex(h string) rgb {
	if len(h) == 7 && h[0] == '#' {
		h = h[1:]
	}
	channel := func(s string) int {
		v, err := strconv.ParseUint(s, 16, 8)
		if err != nil {
			return 0
		}
		return int(v)
	}
	if len(h) != 6 {
		return rgb{}
	}
	return rgb{r: channel(h[0:2]), g: channel(h[2:4]), b: channel(h[4:6])}
}

func formatHex(c rgb) string {
	return fmt.Sprintf("#%02x%02x%02x", c.r, c.g, c.b)
}
