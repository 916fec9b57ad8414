package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldAlert(t *testing.T) {
	a := AlarmSettings{Enabled: true, Volume: 50, Interval: 108}

	assert.True(t, a.ShouldAlert(100, 108))
	assert.True(t, a.ShouldAlert(107, 300), "crossing inside a batch")
	assert.True(t, a.ShouldAlert(215, 216))
	assert.False(t, a.ShouldAlert(108, 110))
	assert.False(t, a.ShouldAlert(0, 107))
	assert.False(t, a.ShouldAlert(50, 50))

	a.Enabled = false
	assert.False(t, a.ShouldAlert(100, 108))
}

func TestAlarmSettingsDefaultsAndSave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Equal(t, DefaultAlarmSettings(), f.alarms.Settings(ctx, "a"))

	want := AlarmSettings{Enabled: true, Volume: 80, Interval: 54}
	require.NoError(t, f.alarms.Save(ctx, "a", want))
	assert.Equal(t, want, f.alarms.Settings(ctx, "a"))
	assert.Equal(t, DefaultAlarmSettings(), f.alarms.Settings(ctx, "b"))

	assert.ErrorIs(t, f.alarms.Save(ctx, "a", AlarmSettings{Volume: 101, Interval: 108}), ErrInvalidInput)
	assert.ErrorIs(t, f.alarms.Save(ctx, "a", AlarmSettings{Volume: 10, Interval: 49}), ErrInvalidInput)
	assert.ErrorIs(t, f.alarms.Save(ctx, "a", AlarmSettings{Volume: 10, Interval: 501}), ErrInvalidInput)
}

func TestAlarmSettingsIgnoresCorruptValue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.accounts.Store(ctx, KeyAudioSettings, map[string]int{"volume": 900, "interval": 1}, "a"))
	assert.Equal(t, DefaultAlarmSettings(), f.alarms.Settings(ctx, "a"))
}
