package casemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// markersWithValues builds markers whose missing and found counts are both v,
// so the total is 2v.
func markersWithValues(values ...int) []Marker {
	out := make([]Marker, 0, len(values))
	for _, v := range values {
		out = append(out, Marker{BaseValue: 2 * v, MissingCount: v, FoundCount: v})
	}
	return out
}

func TestLegendScale_Uniform(t *testing.T) {
	l := LegendScale(markersWithValues(5, 5, 5), CategoryMissing)
	require.NotNil(t, l)
	assert.Equal(t, 5, l.Min)
	assert.Equal(t, 5, l.Mid)
	assert.Equal(t, 5, l.Max)
	assert.True(t, l.IsUniform)
}

func TestLegendScale_LowerMedian(t *testing.T) {
	l := LegendScale(markersWithValues(2, 8, 20, 1), CategoryMissing)
	require.NotNil(t, l)
	assert.Equal(t, 1, l.Min)
	assert.Equal(t, 8, l.Mid)
	assert.Equal(t, 20, l.Max)
	assert.False(t, l.IsUniform)
}

func TestLegendScale_OddCount(t *testing.T) {
	l := LegendScale(markersWithValues(9, 3, 4), CategoryTotal)
	require.NotNil(t, l)
	assert.Equal(t, 6, l.Min)
	assert.Equal(t, 8, l.Mid)
	assert.Equal(t, 18, l.Max)
}

func TestLegendScale_NilWhenNoPositiveValues(t *testing.T) {
	assert.Nil(t, LegendScale(nil, CategoryTotal))
	assert.Nil(t, LegendScale(markersWithValues(0, 0), CategoryTotal))
}

func TestLegendScale_IgnoresZeroValues(t *testing.T) {
	l := LegendScale(markersWithValues(0, 7, 0), CategoryFound)
	require.NotNil(t, l)
	assert.True(t, l.IsUniform)
	assert.Equal(t, 7, l.Min)
}

func TestLegendScale_Ordering(t *testing.T) {
	for _, values := range [][]int{{1}, {4, 1}, {10, 3, 3, 7, 1}, {2, 2, 9}} {
		l := LegendScale(markersWithValues(values...), CategoryTotal)
		require.NotNil(t, l)
		assert.LessOrEqual(t, l.Min, l.Mid)
		assert.LessOrEqual(t, l.Mid, l.Max)
		assert.Equal(t, l.Min == l.Max, l.IsUniform)
	}
}

func TestLegendScale_DoesNotMutateInput(t *testing.T) {
	markers := markersWithValues(9, 1, 5)
	LegendScale(markers, CategoryTotal)
	assert.Equal(t, []int{9, 1, 5}, []int{markers[0].MissingCount, markers[1].MissingCount, markers[2].MissingCount})
}

func TestLegendScale_TitleAndGradient(t *testing.T) {
	l := LegendScale(markersWithValues(1, 2), CategoryMissing)
	require.NotNil(t, l)
	assert.Equal(t, "Intensidade (Desaparecidos)", l.Title)
	assert.Equal(t, [3]string{"#fee2e2", "#f87171", "#dc2626"}, l.Gradient)

	l = LegendScale(markersWithValues(1, 2), CategoryFound)
	require.NotNil(t, l)
	assert.Equal(t, "Intensidade (Localizados)", l.Title)

	l = LegendScale(markersWithValues(1, 2), CategoryTotal)
	require.NotNil(t, l)
	assert.Equal(t, "Intensidade (Total)", l.Title)
}

func TestLegendScale_UsesCategoryCount(t *testing.T) {
	cities := []CityCaseStats{
		{City: "Cuiabá", MissingCount: 2, FoundCount: 30},
		{City: "Sinop", MissingCount: 8, FoundCount: 0},
		{City: "Sorriso", MissingCount: 20, FoundCount: 1},
		{City: "Cáceres", MissingCount: 1, FoundCount: 0},
	}
	markers := BuildMarkers(cities, StatusAll, DefaultGazetteer())
	require.Len(t, markers, 4)

	l := LegendScale(markers, CategoryMissing)
	require.NotNil(t, l)
	assert.Equal(t, 1, l.Min)
	assert.Equal(t, 8, l.Mid)
	assert.Equal(t, 20, l.Max)
	assert.Equal(t, "Intensidade (Desaparecidos)", l.Title)

	l = LegendScale(markers, CategoryFound)
	require.NotNil(t, l)
	assert.Equal(t, 1, l.Min)
	assert.Equal(t, 30, l.Mid)
	assert.Equal(t, 30, l.Max)

	l = LegendScale(markers, CategoryTotal)
	require.NotNil(t, l)
	assert.Equal(t, 1, l.Min)
	assert.Equal(t, 21, l.Mid)
	assert.Equal(t, 32, l.Max)
}

func TestLegendFor_UsesFilterCount(t *testing.T) {
	cities := []CityCaseStats{
		{City: "A", MissingCount: 3, FoundCount: 10},
		{City: "B", MissingCount: 0, FoundCount: 2},
		{City: "C", MissingCount: 6, FoundCount: 0},
	}

	l := LegendFor(cities, StatusMissing)
	require.NotNil(t, l)
	assert.Equal(t, 3, l.Min)
	assert.Equal(t, 6, l.Max)

	l = LegendFor(cities, StatusAll)
	require.NotNil(t, l)
	assert.Equal(t, 2, l.Min)
	assert.Equal(t, 6, l.Mid)
	assert.Equal(t, 13, l.Max)

	assert.Nil(t, LegendFor([]CityCaseStats{{City: "A", MissingCount: 4}}, StatusFound))
}
