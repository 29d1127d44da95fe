package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradeForBoundaries(t *testing.T) {
	scale := DefaultGradeScale("teacher-1")

	cases := []struct {
		average float64
		want    string
	}{
		{100, "A"},
		{80, "A"},
		{79.9, "A-"},
		{75, "A-"},
		{72.5, "B+"},
		{70, "B+"},
		{65, "B"},
		{60, "B-"},
		{55, "C+"},
		{50, "C"},
		{45, "C-"},
		{40, "D+"},
		{35, "D"},
		{30, "D-"},
		{29.9, "E"},
		{0, "E"},
		{-5, "E"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, scale.GradeFor(tc.average), "average %v", tc.average)
	}
}

func TestGradeForCustomScale(t *testing.T) {
	scale := DefaultGradeScale("teacher-1")
	scale.MinA = 85

	assert.Equal(t, "A-", scale.GradeFor(84))
	assert.Equal(t, "A", scale.GradeFor(85))
}

func TestAdjustedAverage(t *testing.T) {
	scale := DefaultGradeScale("teacher-1")
	assert.Equal(t, 45.0, scale.AdjustedAverage(45))

	scale.AverageMultiplier = 2
	assert.Equal(t, 90.0, scale.AdjustedAverage(45))
	assert.Equal(t, 100.0, scale.AdjustedAverage(72.5), "doubled averages cap at 100")
}

func TestBandsDescendOrder(t *testing.T) {
	scale := DefaultGradeScale("teacher-1")
	bands := scale.Bands()
	require.Len(t, bands, 11)
	for i := 1; i < len(bands); i++ {
		assert.Greater(t, bands[i-1].Min, bands[i].Min)
	}
}

func TestGradeLabelsIncludeFloor(t *testing.T) {
	require.Len(t, GradeLabels, 12)
	assert.Equal(t, GradeFloor, GradeLabels[len(GradeLabels)-1])
}
