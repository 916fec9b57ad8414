package services

import (
	"context"
	"errors"
	"strconv"

	"github.com/StartUpFoundee/mantra-verse-counter-32/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Device-level flag keys.
const (
	PrefOnboardingSeen = "onboarding_seen"
	PrefCurrentAccount = "current_account"
)

// PreferenceService stores device-level flags shared by every account slot.
type PreferenceService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewPreferenceService(db *gorm.DB, logger *zap.Logger) *PreferenceService {
	return &PreferenceService{db: db, logger: logger}
}

// Get returns the flag value; read failures are logged and read as unset.
func (s *PreferenceService) Get(ctx context.Context, key string) (string, bool) {
	var pref models.Preference
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&pref).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("preference_read_failed", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return pref.Value, true
}

func (s *PreferenceService) Set(ctx context.Context, key, value string) error {
	pref := models.Preference{Key: key, Value: value}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&pref).Error
}

func (s *PreferenceService) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("key = ?", key).Delete(&models.Preference{}).Error
}

func (s *PreferenceService) OnboardingSeen(ctx context.Context) bool {
	v, ok := s.Get(ctx, PrefOnboardingSeen)
	if !ok {
		return false
	}
	seen, err := strconv.ParseBool(v)
	return err == nil && seen
}

func (s *PreferenceService) SetOnboardingSeen(ctx context.Context, seen bool) error {
	return s.Set(ctx, PrefOnboardingSeen, strconv.FormatBool(seen))
}

func (s *PreferenceService) CurrentAccountPointer(ctx context.Context) string {
	v, _ := s.Get(ctx, PrefCurrentAccount)
	return v
}

func (s *PreferenceService) SetCurrentAccountPointer(ctx context.Context, accountID string) error {
	return s.Set(ctx, PrefCurrentAccount, accountID)
}

func (s *PreferenceService) ClearCurrentAccountPointer(ctx context.Context) error {
	return s.Delete(ctx, PrefCurrentAccount)
}
