package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/StartUpFoundee/mantra-verse-counter-32/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrUnknownPeriod    = errors.New("unknown goal period")
	ErrInvalidTarget    = errors.New("goal target must be positive")
	ErrPasswordRequired = errors.New("password required to edit this goal again")
)

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

var Periods = []Period{PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly}

func ParsePeriod(s string) (Period, error) {
	for _, p := range Periods {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
}

// Days is the number of days a target is spread over.
func (p Period) Days() int {
	switch p {
	case PeriodWeekly:
		return 7
	case PeriodMonthly:
		return 30
	case PeriodYearly:
		return 365
	default:
		return 1
	}
}

func (p Period) Presets() []int {
	switch p {
	case PeriodDaily:
		return []int{108, 1008}
	case PeriodWeekly:
		return []int{21000, 41000}
	case PeriodMonthly:
		return []int{50000, 80000}
	case PeriodYearly:
		return []int{1000000, 2100000}
	}
	return nil
}

// Bounds returns the first and last calendar day of the period containing
// day. Weeks start on Sunday.
func (p Period) Bounds(day time.Time) (time.Time, time.Time) {
	d := civilDay(day)
	switch p {
	case PeriodWeekly:
		start := d.AddDate(0, 0, -int(d.Weekday()))
		return start, start.AddDate(0, 0, 6)
	case PeriodMonthly:
		start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, -1)
	case PeriodYearly:
		start := time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, time.Date(d.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
	default:
		return d, d
	}
}

// DailyTarget spreads target evenly over the period, rounding up.
func DailyTarget(target int, p Period) int {
	if target <= 0 {
		return 0
	}
	return int(math.Ceil(float64(target) / float64(p.Days())))
}

type GoalProgress struct {
	Period      Period  `json:"period"`
	IsSet       bool    `json:"is_set"`
	Target      int     `json:"target"`
	DailyTarget int     `json:"daily_target"`
	Achieved    int     `json:"achieved"`
	Remaining   int     `json:"remaining"`
	Percent     float64 `json:"percent"`
	From        string  `json:"from"`
	To          string  `json:"to"`
	Locked      bool    `json:"locked"`
	Presets     []int   `json:"presets"`
}

type GoalService struct {
	db       *gorm.DB
	activity *ActivityService
	accounts *AccountDataManager
	logger   *zap.Logger
	loc      *time.Location
	now      func() time.Time
}

func NewGoalService(db *gorm.DB, activity *ActivityService, accounts *AccountDataManager, loc *time.Location, logger *zap.Logger) *GoalService {
	return &GoalService{db: db, activity: activity, accounts: accounts, logger: logger, loc: loc, now: time.Now}
}

func (s *GoalService) today() time.Time {
	return s.now().In(s.loc)
}

// SaveGoal sets the target for a period. The first save and one edit are
// free; later edits need the account password.
func (s *GoalService) SaveGoal(ctx context.Context, accountID string, p Period, target int, password string) (*models.Goal, error) {
	if accountID == "" {
		return nil, ErrNoAccountContext
	}
	if _, err := ParsePeriod(string(p)); err != nil {
		return nil, err
	}
	if target <= 0 {
		return nil, ErrInvalidTarget
	}

	var goal models.Goal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("account_id = ? AND period = ?", accountID, string(p)).First(&goal).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			goal = models.Goal{AccountID: accountID, Period: string(p), Target: target}
			return tx.Create(&goal).Error
		}
		if err != nil {
			return err
		}

		if goal.EditCount >= 1 {
			if password == "" {
				return ErrPasswordRequired
			}
			if err := verifyPassword(tx, accountID, password); err != nil {
				return err
			}
		}
		goal.Target = target
		goal.EditCount++
		return tx.Save(&goal).Error
	})
	if err != nil {
		return nil, fmt.Errorf("save %s goal: %w", p, err)
	}

	s.logger.Info("goal_saved",
		zap.String("account_id", accountID),
		zap.String("period", string(p)),
		zap.Int("target", target),
		zap.Int("edit_count", goal.EditCount),
	)
	if p == PeriodDaily {
		s.accounts.SyncSession(ctx, accountID, KeyDailyGoal, target)
	}
	return &goal, nil
}

// Progress reports progress towards the period's goal over the current
// calendar period.
func (s *GoalService) Progress(ctx context.Context, accountID string, p Period) GoalProgress {
	from, to := p.Bounds(s.today())
	gp := GoalProgress{
		Period:  p,
		From:    DateString(from),
		To:      DateString(to),
		Presets: p.Presets(),
	}

	var goal models.Goal
	err := s.db.WithContext(ctx).Where("account_id = ? AND period = ?", accountID, string(p)).First(&goal).Error
	switch {
	case err == nil:
		gp.IsSet = true
		gp.Target = goal.Target
		gp.DailyTarget = DailyTarget(goal.Target, p)
		gp.Locked = goal.EditCount >= 1
	case !errors.Is(err, gorm.ErrRecordNotFound):
		s.logger.Warn("goal_read_failed", zap.String("account_id", accountID), zap.Error(err))
	}

	achieved, err := s.activity.SumBetween(ctx, accountID, gp.From, gp.To)
	if err != nil {
		s.logger.Warn("goal_progress_failed", zap.String("account_id", accountID), zap.Error(err))
	}
	gp.Achieved = achieved

	if gp.Target > 0 {
		gp.Remaining = max(gp.Target-achieved, 0)
		gp.Percent = math.Min(float64(achieved)/float64(gp.Target), 1)
	}
	return gp
}

func (s *GoalService) AllProgress(ctx context.Context, accountID string) []GoalProgress {
	out := make([]GoalProgress, 0, len(Periods))
	for _, p := range Periods {
		out = append(out, s.Progress(ctx, accountID, p))
	}
	return out
}
