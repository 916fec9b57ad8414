package services

import (
	"context"
	"sync"
	"testing"

	"github.com/StartUpFoundee/mantra-verse-counter-32/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordDailyActivityIsAdditive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.activity.RecordDailyActivity(ctx, "a", 108)
	require.NoError(t, err)
	assert.Equal(t, RecordResult{Date: "2024-03-15", Added: 108, Previous: 0, Count: 108}, *res)

	res, err = f.activity.RecordDailyActivity(ctx, "a", 12)
	require.NoError(t, err)
	assert.Equal(t, 108, res.Previous)
	assert.Equal(t, 120, res.Count)

	var rows int64
	require.NoError(t, f.db.Model(&models.DailyActivity{}).Where("account_id = ?", "a").Count(&rows).Error)
	assert.EqualValues(t, 1, rows, "one record per account and date")

	today, err := f.activity.TodayCount(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 120, today)
}

func TestRecordDailyActivityRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.activity.RecordDailyActivity(ctx, "a", 0)
	assert.ErrorIs(t, err, ErrInvalidCount)
	_, err = f.activity.RecordDailyActivity(ctx, "a", -3)
	assert.ErrorIs(t, err, ErrInvalidCount)
	_, err = f.activity.RecordDailyActivity(ctx, "", 1)
	assert.ErrorIs(t, err, ErrNoAccountContext)
}

func TestRecordDailyActivityConcurrentWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.activity.RecordDailyActivity(ctx, "a", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	today, err := f.activity.TodayCount(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 10, today)
}

func TestActivityDataAndTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedActivity(t, "a", map[string]int{"2024-03-13": 5, "2024-03-14": 3, "2024-03-15": 2})
	f.seedActivity(t, "b", map[string]int{"2024-03-15": 1000})

	assert.Equal(t, map[string]int{"2024-03-13": 5, "2024-03-14": 3, "2024-03-15": 2}, f.activity.GetActivityData(ctx, "a"))

	total, err := f.activity.LifetimeCount(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 10, total)

	sum, err := f.activity.SumBetween(ctx, "a", "2024-03-14", "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, 5, sum)

	none, err := f.activity.LifetimeCount(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, none)

	assert.Equal(t, StreakData{CurrentStreak: 3, MaxStreak: 3, TotalActiveDays: 3}, f.activity.StreakData(ctx, "a"))
}

func TestRecordDailyActivityUpdatesWorkingSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedActivity(t, "a", map[string]int{"2024-03-14": 100})
	f.accounts.SetCurrentAccount("a")

	_, err := f.activity.RecordDailyActivity(ctx, "a", 8)
	require.NoError(t, err)

	var lifetime int
	require.True(t, f.sessionValue(t, KeyMantraCount, &lifetime))
	assert.Equal(t, 108, lifetime)

	var last int64
	require.True(t, f.sessionValue(t, KeyLastSession, &last))
	assert.Equal(t, f.clock.UnixMilli(), last)
}
