package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		panic(err)
	}
	return t.Add(15 * time.Hour)
}

func TestCalculateStreakExample(t *testing.T) {
	activity := map[string]int{"2024-01-01": 5, "2024-01-02": 3, "2024-01-04": 2}

	got := CalculateStreak(activity, day("2024-01-04"))

	assert.Equal(t, StreakData{CurrentStreak: 1, MaxStreak: 2, TotalActiveDays: 3}, got)
}

func TestCalculateStreakEmpty(t *testing.T) {
	assert.Equal(t, StreakData{}, CalculateStreak(nil, day("2024-01-04")))
	assert.Equal(t, StreakData{}, CalculateStreak(map[string]int{"2024-01-03": 0}, day("2024-01-04")))
}

func TestCalculateStreakTodayZeroBreaksCurrent(t *testing.T) {
	activity := map[string]int{"2024-03-01": 1, "2024-03-02": 1, "2024-03-03": 0}

	got := CalculateStreak(activity, day("2024-03-03"))

	assert.Equal(t, 0, got.CurrentStreak)
	assert.Equal(t, 2, got.MaxStreak)
	assert.Equal(t, 2, got.TotalActiveDays)
}

func TestCalculateStreakAcrossMonthAndYear(t *testing.T) {
	activity := map[string]int{
		"2023-12-30": 108,
		"2023-12-31": 108,
		"2024-01-01": 108,
		"2024-02-28": 1,
		"2024-02-29": 1,
		"2024-03-01": 1,
		"2024-03-02": 1,
	}

	got := CalculateStreak(activity, day("2024-03-02"))

	assert.Equal(t, 4, got.CurrentStreak)
	assert.Equal(t, 4, got.MaxStreak)
	assert.Equal(t, 7, got.TotalActiveDays)
}

func TestCalculateStreakAcrossDSTChange(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	activity := map[string]int{"2024-03-09": 1, "2024-03-10": 1, "2024-03-11": 1}

	got := CalculateStreak(activity, time.Date(2024, 3, 11, 0, 30, 0, 0, loc))

	assert.Equal(t, 3, got.CurrentStreak)
	assert.Equal(t, 3, got.MaxStreak)
}

func TestCalculateStreakIgnoresMalformedKeys(t *testing.T) {
	activity := map[string]int{"yesterday": 9, "2024-01-04": 2}

	got := CalculateStreak(activity, day("2024-01-04"))

	assert.Equal(t, StreakData{CurrentStreak: 1, MaxStreak: 1, TotalActiveDays: 1}, got)
}

func TestMaxStreakNeverBelowCurrent(t *testing.T) {
	base := day("2024-05-01")
	for mask := 1; mask < 1<<8; mask++ {
		activity := map[string]int{}
		for i := 0; i < 8; i++ {
			if mask&(1<<i) != 0 {
				activity[DateString(base.AddDate(0, 0, i))] = i + 1
			}
		}
		got := CalculateStreak(activity, base.AddDate(0, 0, 7))
		assert.GreaterOrEqual(t, got.MaxStreak, got.CurrentStreak, "mask %08b", mask)
	}
}
