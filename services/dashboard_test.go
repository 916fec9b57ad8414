package services

import (
	"context"
	"testing"

	"github.com/StartUpFoundee/mantra-verse-counter-32/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardBuild(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.accounts.SetCurrentAccount("a")
	f.seedActivity(t, "a", map[string]int{
		"2024-03-12": 1008,
		"2024-03-14": 400,
		"2024-03-15": 320,
	})
	_, err := f.goals.SaveGoal(ctx, "a", PeriodDaily, 108, "")
	require.NoError(t, err)

	d, err := f.dashboard.Build(ctx, "a")
	require.NoError(t, err)

	assert.Equal(t, "2024-03-15", d.Date)
	assert.Equal(t, 320, d.TodayCount)
	assert.Equal(t, 1728, d.LifetimeCount)
	assert.Equal(t, "Yogi", d.TodayLevel.Name)
	assert.Equal(t, StreakData{CurrentStreak: 2, MaxStreak: 2, TotalActiveDays: 3}, d.Streak)
	require.Len(t, d.Goals, 4)
	assert.Equal(t, 1.0, d.Goals[0].Percent)
	assert.Equal(t, 1, d.Time.ActiveDays, "building the dashboard counts as a visit")

	days := map[string]int{}
	for _, l := range d.Levels {
		days[l.Name] = l.Days
	}
	assert.Equal(t, 1, days["Bhakti"])
	assert.Equal(t, 2, days["Yogi"])

	var streak int
	require.True(t, f.sessionValue(t, KeyStreakCount, &streak))
	assert.Equal(t, 2, streak)
	var stats SpiritualStats
	require.True(t, f.sessionValue(t, KeySpiritualStats, &stats))
	assert.Equal(t, SpiritualStats{TodayLevel: "Yogi", LifetimeCount: 1728, MaxStreak: 2}, stats)
}

func TestDashboardIsCachedUntilInvalidated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.dashboard.Build(ctx, "a")
	require.NoError(t, err)
	assert.Zero(t, first.TodayCount)

	_, err = f.activity.RecordDailyActivity(ctx, "a", 10)
	require.NoError(t, err)

	cached, err := f.dashboard.Build(ctx, "a")
	require.NoError(t, err)
	assert.Zero(t, cached.TodayCount, "served from cache")

	var raw Dashboard
	require.NoError(t, cache.GetJSON(ctx, f.store, DashboardCacheKey("a"), &raw))

	f.dashboard.Invalidate(ctx, "a")
	fresh, err := f.dashboard.Build(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 10, fresh.TodayCount)
}

func TestDashboardRequiresAccount(t *testing.T) {
	f := newFixture(t)
	_, err := f.dashboard.Build(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoAccountContext)
}
