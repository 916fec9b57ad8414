package services

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type AlarmSettings struct {
	Enabled  bool `json:"enabled"`
	Volume   int  `json:"volume" validate:"min=0,max=100"`
	Interval int  `json:"interval" validate:"min=50,max=500"`
}

func DefaultAlarmSettings() AlarmSettings {
	return AlarmSettings{Enabled: false, Volume: 50, Interval: 108}
}

// ShouldAlert reports whether going from previous to current jaaps crossed
// a multiple of the alert interval.
func (a AlarmSettings) ShouldAlert(previous, current int) bool {
	if !a.Enabled || a.Interval <= 0 || current <= previous {
		return false
	}
	return current/a.Interval > previous/a.Interval
}

// AlarmService keeps alarm settings in the account's audioSettings value.
type AlarmService struct {
	accounts *AccountDataManager
	validate *validator.Validate
	logger   *zap.Logger
}

func NewAlarmService(accounts *AccountDataManager, logger *zap.Logger) *AlarmService {
	return &AlarmService{accounts: accounts, validate: validator.New(), logger: logger}
}

// Settings returns the stored settings, or the defaults when none are
// stored or they are unreadable.
func (s *AlarmService) Settings(ctx context.Context, accountID string) AlarmSettings {
	settings := DefaultAlarmSettings()
	ok, err := s.accounts.Get(ctx, KeyAudioSettings, accountID, &settings)
	if err != nil {
		s.logger.Warn("alarm_settings_read_failed", zap.String("account_id", accountID), zap.Error(err))
		return DefaultAlarmSettings()
	}
	if !ok || s.validate.Struct(settings) != nil {
		return DefaultAlarmSettings()
	}
	return settings
}

func (s *AlarmService) Save(ctx context.Context, accountID string, settings AlarmSettings) error {
	if err := s.validate.Struct(settings); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.accounts.Store(ctx, KeyAudioSettings, settings, accountID); err != nil {
		return err
	}
	s.accounts.SyncSession(ctx, accountID, KeyAudioSettings, settings)
	return nil
}
