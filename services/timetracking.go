package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/StartUpFoundee/mantra-verse-counter-32/models"
	"github.com/StartUpFoundee/mantra-verse-counter-32/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidDuration = errors.New("seconds must be positive")

type TimeStats struct {
	ActiveDays     int    `json:"active_days"`
	TotalTime      int    `json:"total_time"`
	AverageTime    int    `json:"average_time"`
	TotalFormatted string `json:"total_formatted"`
	AverageDisplay string `json:"average_formatted"`
}

type TimeService struct {
	db     *gorm.DB
	logger *zap.Logger
	loc    *time.Location
	now    func() time.Time
}

func NewTimeService(db *gorm.DB, loc *time.Location, logger *zap.Logger) *TimeService {
	return &TimeService{db: db, logger: logger, loc: loc, now: time.Now}
}

func (s *TimeService) today() time.Time {
	return s.now().In(s.loc)
}

// RecordTimeSpent adds seconds to today's total for the account.
func (s *TimeService) RecordTimeSpent(ctx context.Context, accountID string, seconds int) error {
	if accountID == "" {
		return ErrNoAccountContext
	}
	if seconds <= 0 {
		return ErrInvalidDuration
	}

	now := s.today()
	row := models.DailyTimeSpent{
		AccountID:    accountID,
		Date:         DateString(now),
		TimeSpent:    seconds,
		LastActivity: now,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"time_spent":    gorm.Expr("time_tracking.time_spent + ?", seconds),
			"last_activity": now,
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("record time: %w", err)
	}

	utils.SecondsTracked.Add(float64(seconds))
	s.logger.Debug("time_recorded", zap.String("account_id", accountID), zap.Int("seconds", seconds))
	return nil
}

// GetTimeTrackingData returns date->seconds. Opening the data counts as a
// visit, so today gets one second when it has no entry yet.
func (s *TimeService) GetTimeTrackingData(ctx context.Context, accountID string) map[string]int {
	out := map[string]int{}
	var rows []models.DailyTimeSpent
	if err := s.db.WithContext(ctx).Where("account_id = ?", accountID).Find(&rows).Error; err != nil {
		s.logger.Error("time_read_failed", zap.String("account_id", accountID), zap.Error(err))
		return out
	}
	for _, r := range rows {
		out[r.Date] = r.TimeSpent
	}

	today := DateString(s.today())
	if _, ok := out[today]; !ok && accountID != "" {
		if err := s.RecordTimeSpent(ctx, accountID, 1); err != nil {
			s.logger.Warn("time_visit_record_failed", zap.String("account_id", accountID), zap.Error(err))
		} else {
			out[today] = 1
		}
	}
	return out
}

func (s *TimeService) Stats(ctx context.Context, accountID string) TimeStats {
	return CalculateTimeStats(s.GetTimeTrackingData(ctx, accountID))
}

func CalculateTimeStats(data map[string]int) TimeStats {
	var stats TimeStats
	for _, seconds := range data {
		if seconds > 0 {
			stats.ActiveDays++
			stats.TotalTime += seconds
		}
	}
	if stats.ActiveDays > 0 {
		stats.AverageTime = int(math.Round(float64(stats.TotalTime) / float64(stats.ActiveDays)))
	}
	stats.TotalFormatted = FormatTimeSpent(stats.TotalTime)
	stats.AverageDisplay = FormatTimeSpent(stats.AverageTime)
	return stats
}

// FormatTimeSpent renders seconds as "45s", "2m 5s", "1h 30m".
func FormatTimeSpent(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds < 3600 {
		m, s := seconds/60, seconds%60
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h, m := seconds/3600, (seconds%3600)/60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// Tracker credits time to the current account while the user is active.
// Every interval it records interval seconds if the last interaction was
// within the idle threshold.
type Tracker struct {
	times    *TimeService
	accounts *AccountDataManager
	logger   *zap.Logger
	interval time.Duration
	idle     time.Duration
	now      func() time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

func NewTracker(times *TimeService, accounts *AccountDataManager, interval, idle time.Duration, logger *zap.Logger) *Tracker {
	return &Tracker{
		times:    times,
		accounts: accounts,
		logger:   logger,
		interval: interval,
		idle:     idle,
		now:      time.Now,
	}
}

// Touch records a user interaction.
func (t *Tracker) Touch() {
	t.mu.Lock()
	t.lastSeen = t.now()
	t.mu.Unlock()
}

func (t *Tracker) active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.lastSeen.IsZero() && t.now().Sub(t.lastSeen) < t.idle
}

// Tick performs one heartbeat and reports whether time was recorded.
func (t *Tracker) Tick(ctx context.Context) bool {
	accountID := t.accounts.CurrentAccountID()
	if accountID == "" || !t.active() {
		return false
	}
	seconds := int(t.interval / time.Second)
	if seconds <= 0 {
		return false
	}
	if err := t.times.RecordTimeSpent(ctx, accountID, seconds); err != nil {
		t.logger.Error("heartbeat_record_failed", zap.String("account_id", accountID), zap.Error(err))
		return false
	}
	return true
}

// Run ticks until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Info("time_tracker_started", zap.Duration("interval", t.interval), zap.Duration("idle_threshold", t.idle))
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("time_tracker_stopped")
			return
		case <-ticker.C:
			t.Tick(ctx)
		}
	}
}
