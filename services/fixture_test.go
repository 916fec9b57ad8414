package services

import (
	"context"
	"testing"
	"time"

	"github.com/StartUpFoundee/mantra-verse-counter-32/cache"
	"github.com/StartUpFoundee/mantra-verse-counter-32/db"
	"github.com/StartUpFoundee/mantra-verse-counter-32/models"
	"github.com/StartUpFoundee/mantra-verse-counter-32/utils"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testSecret = []byte("test-secret-value")

// fixture wires every service over an in-memory database, a memory session
// store and a clock the test controls (Friday 2024-03-15 10:00 UTC).
type fixture struct {
	db        *gorm.DB
	store     *cache.MemoryStore
	clock     time.Time
	accounts  *AccountDataManager
	activity  *ActivityService
	times     *TimeService
	goals     *GoalService
	prefs     *PreferenceService
	users     *AccountService
	alarms    *AlarmService
	dashboard *DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})

	lg := zap.NewNop()
	f := &fixture{
		db:    conn,
		store: cache.NewMemoryStore(),
		clock: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
	}
	now := func() time.Time { return f.clock }

	f.accounts = NewAccountDataManager(conn, f.store, lg)
	f.accounts.now = now
	f.activity = NewActivityService(conn, f.accounts, time.UTC, lg)
	f.activity.now = now
	f.times = NewTimeService(conn, time.UTC, lg)
	f.times.now = now
	f.goals = NewGoalService(conn, f.activity, f.accounts, time.UTC, lg)
	f.goals.now = now
	f.prefs = NewPreferenceService(conn, lg)
	f.users = NewAccountService(conn, f.accounts, f.prefs, testSecret, time.UTC, lg)
	f.users.now = now
	f.alarms = NewAlarmService(f.accounts, lg)
	f.dashboard = NewDashboardService(f.activity, f.times, f.goals, f.accounts, f.store, time.Minute, lg)
	return f
}

func (f *fixture) setToday(date string) {
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		panic(err)
	}
	f.clock = d.Add(10 * time.Hour)
}

// createAccount inserts an account directly, without logging it in.
func (f *fixture) createAccount(t *testing.T, id string, slot int, password string) *models.Account {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)
	a := &models.Account{ID: id, Slot: slot, Name: "Test " + id, DateOfBirth: "1990-01-01", Icon: "om", PasswordHash: hash}
	require.NoError(t, f.db.Create(a).Error)
	return a
}

func (f *fixture) seedActivity(t *testing.T, accountID string, counts map[string]int) {
	t.Helper()
	for date, n := range counts {
		row := models.DailyActivity{AccountID: accountID, Date: date, Count: n, Timestamp: f.clock}
		require.NoError(t, f.db.Create(&row).Error)
	}
}

func (f *fixture) sessionValue(t *testing.T, key string, dest interface{}) bool {
	t.Helper()
	ok, err := f.accounts.SessionValue(context.Background(), key, dest)
	require.NoError(t, err)
	return ok
}
