package services

import (
	"context"
	"errors"
	"time"

	"github.com/StartUpFoundee/mantra-verse-counter-32/cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type SpiritualStats struct {
	TodayLevel    string `json:"today_level"`
	LifetimeCount int    `json:"lifetime_count"`
	MaxStreak     int    `json:"max_streak"`
}

type Dashboard struct {
	AccountID      string         `json:"account_id"`
	Date           string         `json:"date"`
	TodayCount     int            `json:"today_count"`
	LifetimeCount  int            `json:"lifetime_count"`
	Streak         StreakData     `json:"streak"`
	TodayLevel     Level          `json:"today_level"`
	Levels         []LevelDays    `json:"levels"`
	Goals          []GoalProgress `json:"goals"`
	Time           TimeStats      `json:"time"`
	ProcessingTime time.Duration  `json:"processing_time_ns"`
}

// DashboardService assembles the home screen summary. Parts are computed
// concurrently and a failed part is reported as zero.
type DashboardService struct {
	activity *ActivityService
	times    *TimeService
	goals    *GoalService
	accounts *AccountDataManager
	store    cache.Store
	ttl      time.Duration
	logger   *zap.Logger
}

func NewDashboardService(activity *ActivityService, times *TimeService, goals *GoalService, accounts *AccountDataManager, store cache.Store, ttl time.Duration, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		activity: activity,
		times:    times,
		goals:    goals,
		accounts: accounts,
		store:    store,
		ttl:      ttl,
		logger:   logger,
	}
}

func DashboardCacheKey(accountID string) string {
	return "dashboard:" + accountID
}

func (s *DashboardService) Build(ctx context.Context, accountID string) (*Dashboard, error) {
	if accountID == "" {
		return nil, ErrNoAccountContext
	}
	start := time.Now()

	key := DashboardCacheKey(accountID)
	var cached Dashboard
	if s.ttl > 0 {
		err := cache.GetJSON(ctx, s.store, key, &cached)
		if err == nil {
			s.logger.Debug("cache_hit", zap.String("key", key))
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("dashboard_cache_read_failed", zap.String("key", key), zap.Error(err))
		}
	}

	d := &Dashboard{AccountID: accountID, Date: DateString(s.activity.today())}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	g.Go(func() error {
		n, err := s.activity.TodayCount(gctx, accountID)
		if err != nil {
			s.logger.Warn("dashboard_today_failed", zap.String("account_id", accountID), zap.Error(err))
		}
		d.TodayCount = n
		d.TodayLevel = ClassifyLevel(n, SpiritualLevels)
		return nil
	})
	g.Go(func() error {
		n, err := s.activity.LifetimeCount(gctx, accountID)
		if err != nil {
			s.logger.Warn("dashboard_lifetime_failed", zap.String("account_id", accountID), zap.Error(err))
		}
		d.LifetimeCount = n
		return nil
	})
	g.Go(func() error {
		data := s.activity.GetActivityData(gctx, accountID)
		d.Streak = CalculateStreak(data, s.activity.today())
		d.Levels = LevelDistribution(data, SpiritualLevels)
		return nil
	})
	g.Go(func() error {
		d.Goals = s.goals.AllProgress(gctx, accountID)
		return nil
	})
	g.Go(func() error {
		d.Time = s.times.Stats(gctx, accountID)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	d.ProcessingTime = time.Since(start)

	if s.ttl > 0 {
		if err := cache.SetJSON(ctx, s.store, key, d, s.ttl); err != nil {
			s.logger.Warn("dashboard_cache_write_failed", zap.String("key", key), zap.Error(err))
		}
	}

	s.accounts.SyncSession(ctx, accountID, KeyStreakCount, d.Streak.CurrentStreak)
	s.accounts.SyncSession(ctx, accountID, KeyActiveDays, d.Streak.TotalActiveDays)
	s.accounts.SyncSession(ctx, accountID, KeySpiritualStats, SpiritualStats{
		TodayLevel:    d.TodayLevel.Name,
		LifetimeCount: d.LifetimeCount,
		MaxStreak:     d.Streak.MaxStreak,
	})

	s.logger.Info("dashboard_built",
		zap.String("account_id", accountID),
		zap.Duration("duration", d.ProcessingTime),
	)
	return d, nil
}

// Invalidate drops the cached dashboard of an account.
func (s *DashboardService) Invalidate(ctx context.Context, accountID string) {
	if err := s.store.Delete(ctx, DashboardCacheKey(accountID)); err != nil {
		s.logger.Warn("dashboard_cache_invalidate_failed", zap.String("account_id", accountID), zap.Error(err))
	}
}
