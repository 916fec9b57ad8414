package services

import "fmt"

type Level struct {
	Name     string `json:"name"`
	Icon     string `json:"icon"`
	Range    string `json:"range"`
	MinCount int    `json:"min_count"`
	MaxCount *int   `json:"max_count"` // nil means unbounded
}

func (l Level) Contains(count int) bool {
	return count >= l.MinCount && (l.MaxCount == nil || count <= *l.MaxCount)
}

type LevelDays struct {
	Level
	Days int `json:"days"`
}

func bounded(min, max int) Level {
	return Level{MinCount: min, MaxCount: &max, Range: fmt.Sprintf("%d-%d", min, max)}
}

func named(l Level, name, icon string) Level {
	l.Name, l.Icon = name, icon
	return l
}

// SpiritualLevels is the reference band list, ascending by minimum.
var SpiritualLevels = []Level{
	{Name: "Rogi", Icon: "🤒", Range: "0 jaaps", MinCount: 0, MaxCount: intPtr(0)},
	named(bounded(1, 308), "Bhogi", "🍯"),
	named(bounded(309, 508), "Yogi", "🧘"),
	named(bounded(509, 708), "Sadhak", "🕉️"),
	named(bounded(709, 1007), "Tapasvi", "🔥"),
	{Name: "Bhakti", Icon: "🙏", Range: "1008+", MinCount: 1008},
}

// ClassifyLevel scans bands from the highest down and returns the first
// one containing count, or the lowest band when nothing matches.
func ClassifyLevel(count int, bands []Level) Level {
	for i := len(bands) - 1; i >= 0; i-- {
		if bands[i].Contains(count) {
			return bands[i]
		}
	}
	if len(bands) == 0 {
		return Level{}
	}
	return bands[0]
}

// LevelDistribution counts, per band, the days whose count falls in it.
func LevelDistribution(activity map[string]int, bands []Level) []LevelDays {
	out := make([]LevelDays, len(bands))
	for i, b := range bands {
		out[i].Level = b
	}
	for _, count := range activity {
		for i, b := range bands {
			if b.Contains(count) {
				out[i].Days++
			}
		}
	}
	return out
}

func intPtr(v int) *int { return &v }
