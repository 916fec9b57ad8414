package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/StartUpFoundee/mantra-verse-counter-32/models"
	"github.com/StartUpFoundee/mantra-verse-counter-32/utils"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNoFreeSlot         = errors.New("all account slots are in use")
	ErrInvalidCredentials = errors.New("invalid slot or password")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidInput       = errors.New("invalid input")
)

type CreateAccountInput struct {
	Name            string `json:"name" validate:"required"`
	DateOfBirth     string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Icon            string `json:"icon" validate:"omitempty,max=32"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	Slot            int    `json:"slot" validate:"omitempty,min=1,max=3"`
}

type Session struct {
	Account *models.Account `json:"account"`
	Token   string          `json:"token"`
}

type SlotInfo struct {
	Slot    int             `json:"slot"`
	IsEmpty bool            `json:"is_empty"`
	Account *models.Account `json:"account,omitempty"`
}

type AccountService struct {
	db       *gorm.DB
	accounts *AccountDataManager
	prefs    *PreferenceService
	secret   []byte
	validate *validator.Validate
	logger   *zap.Logger
	loc      *time.Location
	now      func() time.Time
}

func NewAccountService(db *gorm.DB, accounts *AccountDataManager, prefs *PreferenceService, secret []byte, loc *time.Location, logger *zap.Logger) *AccountService {
	return &AccountService{
		db:       db,
		accounts: accounts,
		prefs:    prefs,
		secret:   secret,
		validate: validator.New(),
		logger:   logger,
		loc:      loc,
		now:      time.Now,
	}
}

func (s *AccountService) validateCreate(in *CreateAccountInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len([]rune(in.Name)) < 2 {
		return fmt.Errorf("%w: name must be at least 2 characters", ErrInvalidInput)
	}
	dob, err := time.ParseInLocation(models.DateLayout, in.DateOfBirth, s.loc)
	if err != nil {
		return fmt.Errorf("%w: date of birth: %v", ErrInvalidInput, err)
	}
	if dob.After(s.now().In(s.loc)) {
		return fmt.Errorf("%w: date of birth is in the future", ErrInvalidInput)
	}
	return nil
}

// Create registers an account in the requested slot, or the first free one,
// and logs it in.
func (s *AccountService) Create(ctx context.Context, in CreateAccountInput) (*Session, error) {
	if err := s.validateCreate(&in); err != nil {
		return nil, err
	}
	if in.Icon == "" {
		in.Icon = "om"
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := models.Account{
		ID:           uuid.NewString(),
		Name:         in.Name,
		DateOfBirth:  in.DateOfBirth,
		Icon:         in.Icon,
		PasswordHash: hash,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var used []int
		if err := tx.Model(&models.Account{}).Pluck("slot", &used).Error; err != nil {
			return err
		}
		slot, err := pickSlot(used, in.Slot)
		if err != nil {
			return err
		}
		account.Slot = slot
		return tx.Create(&account).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.logger.Info("account_created",
		zap.String("account_id", account.ID),
		zap.Int("slot", account.Slot),
	)
	return s.startSession(ctx, &account)
}

// pickSlot returns requested when it is free, otherwise the lowest free slot.
func pickSlot(used []int, requested int) (int, error) {
	taken := make(map[int]bool, len(used))
	for _, s := range used {
		taken[s] = true
	}
	if requested >= 1 && requested <= models.MaxAccountSlots && !taken[requested] {
		return requested, nil
	}
	for slot := 1; slot <= models.MaxAccountSlots; slot++ {
		if !taken[slot] {
			return slot, nil
		}
	}
	return 0, ErrNoFreeSlot
}

func (s *AccountService) Login(ctx context.Context, slot int, password string) (*Session, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("slot = ?", slot).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.CheckPasswordHash(password, account.PasswordHash) {
		s.logger.Warn("login_failed", zap.Int("slot", slot))
		return nil, ErrInvalidCredentials
	}
	return s.startSession(ctx, &account)
}

func (s *AccountService) startSession(ctx context.Context, account *models.Account) (*Session, error) {
	if err := s.Activate(ctx, account.ID); err != nil {
		return nil, err
	}
	token, err := utils.GenerateToken(s.secret, account.ID, account.Slot, account.Name, account.TokenVersion)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	s.logger.Info("login_success", zap.String("account_id", account.ID), zap.Int("slot", account.Slot))
	return &Session{Account: account, Token: token}, nil
}

// Activate makes accountID the current account, swapping the working set
// when another account was active.
func (s *AccountService) Activate(ctx context.Context, accountID string) error {
	if err := s.accounts.Switch(ctx, accountID); err != nil {
		return fmt.Errorf("switch account: %w", err)
	}
	if err := s.prefs.SetCurrentAccountPointer(ctx, accountID); err != nil {
		s.logger.Warn("current_account_pointer_failed", zap.String("account_id", accountID), zap.Error(err))
	}
	return nil
}

// Logout ends every session of accountID: tokens issued so far stop being
// accepted, and when it is the current account its working set is saved
// and the context dropped.
func (s *AccountService) Logout(ctx context.Context, accountID string) error {
	res := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("token_version", gorm.Expr("token_version + 1"))
	if res.Error != nil {
		return fmt.Errorf("logout: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}

	if err := s.accounts.Detach(ctx, accountID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if s.prefs.CurrentAccountPointer(ctx) == accountID {
		if err := s.prefs.ClearCurrentAccountPointer(ctx); err != nil {
			s.logger.Warn("current_account_pointer_failed", zap.Error(err))
		}
	}
	s.logger.Info("logout", zap.String("account_id", accountID))
	return nil
}

// Restore re-establishes the account context saved before a restart. It
// returns the restored id, or "" when there was nothing to restore.
func (s *AccountService) Restore(ctx context.Context) (string, error) {
	id := s.prefs.CurrentAccountPointer(ctx)
	if id == "" {
		return "", nil
	}
	if _, err := s.Get(ctx, id); err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			s.logger.Warn("stale_current_account_pointer", zap.String("account_id", id))
			return "", s.prefs.ClearCurrentAccountPointer(ctx)
		}
		return "", err
	}
	if err := s.accounts.Resume(ctx, id); err != nil {
		return "", err
	}
	s.logger.Info("account_context_restored", zap.String("account_id", id))
	return id, nil
}

func (s *AccountService) Get(ctx context.Context, accountID string) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).Where("id = ?", accountID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// Slots lists every slot on the device, empty or not.
func (s *AccountService) Slots(ctx context.Context) ([]SlotInfo, error) {
	var accounts []models.Account
	if err := s.db.WithContext(ctx).Order("slot").Find(&accounts).Error; err != nil {
		return nil, err
	}
	bySlot := make(map[int]*models.Account, len(accounts))
	for i := range accounts {
		bySlot[accounts[i].Slot] = &accounts[i]
	}

	slots := make([]SlotInfo, 0, models.MaxAccountSlots)
	for slot := 1; slot <= models.MaxAccountSlots; slot++ {
		a := bySlot[slot]
		slots = append(slots, SlotInfo{Slot: slot, IsEmpty: a == nil, Account: a})
	}
	return slots, nil
}

// Delete removes the account and everything recorded for it.
func (s *AccountService) Delete(ctx context.Context, accountID, password string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := verifyPassword(tx, accountID, password); err != nil {
			return err
		}
		for _, model := range []interface{}{
			&models.DailyActivity{},
			&models.DailyTimeSpent{},
			&models.Goal{},
			&models.AccountData{},
		} {
			if err := tx.Where("account_id = ?", accountID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Where("id = ?", accountID).Delete(&models.Account{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	if err := s.accounts.Forget(ctx, accountID); err != nil {
		s.logger.Warn("account_session_forget_failed", zap.String("account_id", accountID), zap.Error(err))
	}
	if s.prefs.CurrentAccountPointer(ctx) == accountID {
		if err := s.prefs.ClearCurrentAccountPointer(ctx); err != nil {
			s.logger.Warn("current_account_pointer_failed", zap.Error(err))
		}
	}
	s.logger.Info("account_deleted", zap.String("account_id", accountID))
	return nil
}

func verifyPassword(tx *gorm.DB, accountID, password string) error {
	var account models.Account
	if err := tx.Where("id = ?", accountID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	if !utils.CheckPasswordHash(password, account.PasswordHash) {
		return ErrInvalidCredentials
	}
	return nil
}
