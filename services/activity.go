package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/StartUpFoundee/mantra-verse-counter-32/models"
	"github.com/StartUpFoundee/mantra-verse-counter-32/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidCount = errors.New("count must be positive")

type RecordResult struct {
	Date     string `json:"date"`
	Added    int    `json:"added"`
	Previous int    `json:"previous"`
	Count    int    `json:"count"`
}

type ActivityService struct {
	db       *gorm.DB
	accounts *AccountDataManager
	logger   *zap.Logger
	loc      *time.Location
	now      func() time.Time
}

func NewActivityService(db *gorm.DB, accounts *AccountDataManager, loc *time.Location, logger *zap.Logger) *ActivityService {
	return &ActivityService{db: db, accounts: accounts, logger: logger, loc: loc, now: time.Now}
}

func (s *ActivityService) today() time.Time {
	return s.now().In(s.loc)
}

// RecordDailyActivity adds n jaaps to today's count for the account.
func (s *ActivityService) RecordDailyActivity(ctx context.Context, accountID string, n int) (*RecordResult, error) {
	if accountID == "" {
		return nil, ErrNoAccountContext
	}
	if n <= 0 {
		return nil, ErrInvalidCount
	}

	now := s.today()
	date := DateString(now)
	result := &RecordResult{Date: date, Added: n}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.DailyActivity
		err := tx.Where("account_id = ? AND date = ?", accountID, date).First(&existing).Error
		switch {
		case err == nil:
			result.Previous = existing.Count
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		row := models.DailyActivity{AccountID: accountID, Date: date, Count: n, Timestamp: now}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "account_id"}, {Name: "date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"count":     gorm.Expr("daily_activities.count + ?", n),
				"timestamp": now,
			}),
		}).Create(&row).Error; err != nil {
			return err
		}

		var total models.DailyActivity
		if err := tx.Where("account_id = ? AND date = ?", accountID, date).First(&total).Error; err != nil {
			return err
		}
		result.Count = total.Count
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record activity: %w", err)
	}

	utils.JaapsRecorded.Add(float64(n))
	s.logger.Info("jaaps_recorded",
		zap.String("account_id", accountID),
		zap.String("date", date),
		zap.Int("added", n),
		zap.Int("count", result.Count),
	)

	if lifetime, err := s.LifetimeCount(ctx, accountID); err == nil {
		s.accounts.SyncSession(ctx, accountID, KeyMantraCount, lifetime)
	}
	s.accounts.SyncSession(ctx, accountID, KeyLastSession, now.UnixMilli())

	return result, nil
}

// GetActivityData returns the account's date->count map. Read failures are
// logged and yield an empty map.
func (s *ActivityService) GetActivityData(ctx context.Context, accountID string) map[string]int {
	out := map[string]int{}
	var rows []models.DailyActivity
	if err := s.db.WithContext(ctx).Where("account_id = ?", accountID).Find(&rows).Error; err != nil {
		s.logger.Error("activity_read_failed", zap.String("account_id", accountID), zap.Error(err))
		return out
	}
	for _, r := range rows {
		out[r.Date] = r.Count
	}
	return out
}

func (s *ActivityService) TodayCount(ctx context.Context, accountID string) (int, error) {
	var row models.DailyActivity
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND date = ?", accountID, DateString(s.today())).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Count, nil
}

func (s *ActivityService) LifetimeCount(ctx context.Context, accountID string) (int, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.DailyActivity{}).
		Where("account_id = ?", accountID).
		Select("COALESCE(SUM(count), 0)").
		Scan(&total).Error
	return int(total), err
}

// SumBetween totals the counts of dates in [from, to], both YYYY-MM-DD.
func (s *ActivityService) SumBetween(ctx context.Context, accountID, from, to string) (int, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.DailyActivity{}).
		Where("account_id = ? AND date >= ? AND date <= ?", accountID, from, to).
		Select("COALESCE(SUM(count), 0)").
		Scan(&total).Error
	return int(total), err
}

func (s *ActivityService) StreakData(ctx context.Context, accountID string) StreakData {
	return CalculateStreak(s.GetActivityData(ctx, accountID), s.today())
}
