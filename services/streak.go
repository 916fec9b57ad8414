package services

import (
	"sort"
	"time"

	"github.com/StartUpFoundee/mantra-verse-counter-32/models"
)

type StreakData struct {
	CurrentStreak   int `json:"current_streak"`
	MaxStreak       int `json:"max_streak"`
	TotalActiveDays int `json:"total_active_days"`
}

// CalculateStreak derives streaks from a date->count map. The current
// streak must reach today: a zero today means a current streak of 0.
// Keys that are not YYYY-MM-DD dates are ignored.
func CalculateStreak(activity map[string]int, today time.Time) StreakData {
	var active []time.Time
	for date, count := range activity {
		if count <= 0 {
			continue
		}
		d, err := parseDay(date)
		if err != nil {
			continue
		}
		active = append(active, d)
	}

	if len(active) == 0 {
		return StreakData{}
	}

	current := 0
	for day := civilDay(today); activity[day.Format(models.DateLayout)] > 0; day = day.AddDate(0, 0, -1) {
		current++
	}

	sort.Slice(active, func(i, j int) bool { return active[i].Before(active[j]) })

	maxStreak, run := 0, 0
	for i, d := range active {
		if i > 0 && daysBetween(active[i-1], d) == 1 {
			run++
		} else {
			run = 1
		}
		if run > maxStreak {
			maxStreak = run
		}
	}

	return StreakData{
		CurrentStreak:   current,
		MaxStreak:       maxStreak,
		TotalActiveDays: len(active),
	}
}

// civilDay maps t to midnight UTC of its local calendar date so that day
// arithmetic never crosses a DST boundary.
func civilDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func parseDay(s string) (time.Time, error) {
	return time.ParseInLocation(models.DateLayout, s, time.UTC)
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// DateString formats t as the local calendar day key.
func DateString(t time.Time) string {
	return t.Format(models.DateLayout)
}
