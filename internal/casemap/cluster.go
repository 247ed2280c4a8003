package casemap

import (
	"math"
	"sort"
	"strconv"
)

const (
	// ClusterThreshold is the marker count above which markers are merged
	// into grid clusters.
	ClusterThreshold = 40

	// ClusterPrecision is the grid cell size in degrees.
	ClusterPrecision = 0.9
)

// Cluster is a group of markers that fell into the same grid cell.
type Cluster struct {
	Cell       string   `json:"cell"`
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
	Count      int      `json:"count"`
	ValueSum   int      `json:"value_sum"`
	Intensity  float64  `json:"intensity"`
	MissingSum int      `json:"missing_sum"`
	FoundSum   int      `json:"found_sum"`
	Cities     []string `json:"cities"`
}

// Aggregation is the result of Aggregate. When IsClustered is false the
// caller renders the markers individually and Clusters is empty.
type Aggregation struct {
	IsClustered bool      `json:"is_clustered"`
	Clusters    []Cluster `json:"clusters"`
}

// cellKey identifies a grid cell by its rounded row and column.
type cellKey struct {
	row, col int
}

func (k cellKey) String() string {
	return strconv.Itoa(k.row) + ":" + strconv.Itoa(k.col)
}

type cellAcc struct {
	key                  cellKey
	latSum, lonSum       float64
	count, valueSum      int
	missingSum, foundSum int
	cities               []string
}

// Aggregate merges markers into fixed 0.9° grid cells when there are more
// than ClusterThreshold of them. Centroids are the unweighted mean of member
// coordinates. Clusters are returned ordered by cell (row, then column).
func Aggregate(markers []Marker) Aggregation {
	if len(markers) <= ClusterThreshold {
		return Aggregation{Clusters: []Cluster{}}
	}

	cells := make(map[cellKey]*cellAcc)
	for _, m := range markers {
		k := gridCell(m.Lat, m.Lon)
		acc, ok := cells[k]
		if !ok {
			acc = &cellAcc{key: k}
			cells[k] = acc
		}
		acc.latSum += m.Lat
		acc.lonSum += m.Lon
		acc.count++
		acc.valueSum += m.BaseValue
		acc.missingSum += m.MissingCount
		acc.foundSum += m.FoundCount
		acc.cities = append(acc.cities, m.City)
	}

	accs := make([]*cellAcc, 0, len(cells))
	for _, acc := range cells {
		accs = append(accs, acc)
	}
	sort.Slice(accs, func(i, j int) bool {
		if accs[i].key.row != accs[j].key.row {
			return accs[i].key.row < accs[j].key.row
		}
		return accs[i].key.col < accs[j].key.col
	})

	maxSum := 1
	for _, acc := range accs {
		if acc.valueSum > maxSum {
			maxSum = acc.valueSum
		}
	}

	clusters := make([]Cluster, 0, len(accs))
	for _, acc := range accs {
		n := float64(acc.count)
		clusters = append(clusters, Cluster{
			Cell:       acc.key.String(),
			Lat:        acc.latSum / n,
			Lon:        acc.lonSum / n,
			Count:      acc.count,
			ValueSum:   acc.valueSum,
			Intensity:  float64(acc.valueSum) / float64(maxSum),
			MissingSum: acc.missingSum,
			FoundSum:   acc.foundSum,
			Cities:     acc.cities,
		})
	}

	return Aggregation{IsClustered: true, Clusters: clusters}
}

// GridCell returns the "row:col" key of the cell containing the point.
func GridCell(lat, lon float64) string {
	return gridCell(lat, lon).String()
}

func gridCell(lat, lon float64) cellKey {
	return cellKey{
		row: roundHalfUp(lat / ClusterPrecision),
		col: roundHalfUp(lon / ClusterPrecision),
	}
}

// roundHalfUp rounds ties toward +Inf, so -2.5 becomes -2.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
