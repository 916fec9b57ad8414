package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyLevelBoundaries(t *testing.T) {
	cases := []struct {
		count int
		want  string
	}{
		{0, "Rogi"},
		{1, "Bhogi"},
		{308, "Bhogi"},
		{309, "Yogi"},
		{508, "Yogi"},
		{509, "Sadhak"},
		{708, "Sadhak"},
		{709, "Tapasvi"},
		{1007, "Tapasvi"},
		{1008, "Bhakti"},
		{1_000_000, "Bhakti"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyLevel(tc.count, SpiritualLevels).Name, "count %d", tc.count)
	}
}

func TestClassifyLevelFailsClosedToLowestBand(t *testing.T) {
	assert.Equal(t, "Rogi", ClassifyLevel(-5, SpiritualLevels).Name)

	gappy := []Level{named(bounded(10, 20), "low", ""), named(bounded(30, 40), "high", "")}
	assert.Equal(t, "low", ClassifyLevel(25, gappy).Name)

	assert.Equal(t, Level{}, ClassifyLevel(5, nil))
}

func TestClassifyLevelIsMonotonic(t *testing.T) {
	rank := map[string]int{}
	for i, l := range SpiritualLevels {
		rank[l.Name] = i
	}

	prev := 0
	for c := 0; c <= 1200; c++ {
		r := rank[ClassifyLevel(c, SpiritualLevels).Name]
		assert.GreaterOrEqual(t, r, prev, "count %d", c)
		prev = r
	}
}

func TestExactlyOneBandMatches(t *testing.T) {
	for c := 0; c <= 1200; c++ {
		matches := 0
		for _, l := range SpiritualLevels {
			if l.Contains(c) {
				matches++
			}
		}
		assert.Equal(t, 1, matches, "count %d", c)
	}
}

func TestLevelDistribution(t *testing.T) {
	activity := map[string]int{
		"2024-01-01": 0,
		"2024-01-02": 108,
		"2024-01-03": 308,
		"2024-01-04": 1008,
		"2024-01-05": 5000,
	}

	dist := LevelDistribution(activity, SpiritualLevels)

	days := map[string]int{}
	for _, d := range dist {
		days[d.Name] = d.Days
	}
	assert.Equal(t, map[string]int{"Rogi": 1, "Bhogi": 2, "Yogi": 0, "Sadhak": 0, "Tapasvi": 0, "Bhakti": 2}, days)
}
