package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/StartUpFoundee/mantra-verse-counter-32/cache"
	"github.com/StartUpFoundee/mantra-verse-counter-32/models"
	"github.com/StartUpFoundee/mantra-verse-counter-32/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNoAccountContext = errors.New("no account context set")

// Working-set keys: the per-session values swapped on account switch.
const (
	KeyMantraCount     = "mantraCount"
	KeyDailyGoal       = "dailyGoal"
	KeyStreakCount     = "streakCount"
	KeyUserPreferences = "userPreferences"
	KeyChantingHistory = "chantingHistory"
	KeySpiritualStats  = "spiritualStats"
	KeyActiveDays      = "activeDays"
	KeyAudioSettings   = "audioSettings"
	KeyThemePreference = "themePreference"
	KeyLastSession     = "lastSession"
)

var SessionKeys = []string{
	KeyMantraCount,
	KeyDailyGoal,
	KeyStreakCount,
	KeyUserPreferences,
	KeyChantingHistory,
	KeySpiritualStats,
	KeyActiveDays,
	KeyAudioSettings,
	KeyThemePreference,
	KeyLastSession,
}

// IsSessionKey reports whether key is part of the working set.
func IsSessionKey(key string) bool {
	for _, k := range SessionKeys {
		if k == key {
			return true
		}
	}
	return false
}

// AccountKey returns the namespaced form of key for accountID.
func AccountKey(accountID, key string) string {
	return accountPrefix(accountID) + key
}

func accountPrefix(accountID string) string {
	return "account_" + accountID + "_"
}

// sessionEnvelope is how namespaced values are mirrored in the session store.
type sessionEnvelope struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
	AccountID string          `json:"account_id"`
}

// AccountDataManager isolates per-account data. Values live durably in the
// account_data table and are mirrored in the session store; the working set
// (SessionKeys, un-prefixed) belongs to whichever account is current.
type AccountDataManager struct {
	db      *gorm.DB
	session cache.Store
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.RWMutex
	current  string
	switchMu sync.Mutex
}

func NewAccountDataManager(db *gorm.DB, session cache.Store, logger *zap.Logger) *AccountDataManager {
	return &AccountDataManager{db: db, session: session, logger: logger, now: time.Now}
}

func (m *AccountDataManager) SetCurrentAccount(accountID string) {
	m.mu.Lock()
	m.current = accountID
	m.mu.Unlock()
	m.logger.Info("account_context_set", zap.String("account_id", accountID))
}

func (m *AccountDataManager) CurrentAccountID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *AccountDataManager) ClearCurrentAccount() {
	m.mu.Lock()
	m.current = ""
	m.mu.Unlock()
	m.logger.Info("account_context_cleared")
}

// Key resolves the namespaced key, using the current account when
// accountID is empty.
func (m *AccountDataManager) Key(key, accountID string) (string, error) {
	id, err := m.resolve(accountID)
	if err != nil {
		return "", err
	}
	return AccountKey(id, key), nil
}

func (m *AccountDataManager) resolve(accountID string) (string, error) {
	if accountID != "" {
		return accountID, nil
	}
	if id := m.CurrentAccountID(); id != "" {
		return id, nil
	}
	return "", ErrNoAccountContext
}

// Store writes data under key for the account (current when accountID is empty).
func (m *AccountDataManager) Store(ctx context.Context, key string, data interface{}, accountID string) error {
	id, err := m.resolve(accountID)
	if err != nil {
		return err
	}
	nk := AccountKey(id, key)

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	now := m.now()

	env, err := json.Marshal(sessionEnvelope{Data: raw, Timestamp: now.UnixMilli(), AccountID: id})
	if err != nil {
		return err
	}
	if err := m.session.Set(ctx, nk, env, 0); err != nil {
		return fmt.Errorf("session store %s: %w", key, err)
	}

	record := models.AccountData{Key: nk, AccountID: id, Data: string(raw), Timestamp: now}
	if err := m.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&record).Error; err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}

	m.logger.Debug("account_data_stored", zap.String("account_id", id), zap.String("key", key))
	return nil
}

// GetRaw returns the stored JSON for key, or nil when nothing is stored.
// The durable copy wins over the session mirror; storage failures are
// logged and read as missing.
func (m *AccountDataManager) GetRaw(ctx context.Context, key, accountID string) (json.RawMessage, error) {
	id, err := m.resolve(accountID)
	if err != nil {
		return nil, err
	}
	nk := AccountKey(id, key)

	var record models.AccountData
	err = m.db.WithContext(ctx).Where("key = ?", nk).First(&record).Error
	switch {
	case err == nil:
		return json.RawMessage(record.Data), nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		m.logger.Warn("account_data_read_failed", zap.String("key", nk), zap.Error(err))
	}

	var env sessionEnvelope
	if err := cache.GetJSON(ctx, m.session, nk, &env); err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			m.logger.Warn("account_session_read_failed", zap.String("key", nk), zap.Error(err))
		}
		return nil, nil
	}
	return env.Data, nil
}

// Get decodes the stored value into dest and reports whether one existed.
func (m *AccountDataManager) Get(ctx context.Context, key, accountID string, dest interface{}) (bool, error) {
	raw, err := m.GetRaw(ctx, key, accountID)
	if err != nil || raw == nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		m.logger.Warn("account_data_malformed", zap.String("key", key), zap.Error(err))
		return false, nil
	}
	return true, nil
}

func (m *AccountDataManager) Delete(ctx context.Context, key, accountID string) error {
	id, err := m.resolve(accountID)
	if err != nil {
		return err
	}
	nk := AccountKey(id, key)

	stale := []string{nk}
	if IsSessionKey(key) && id == m.CurrentAccountID() {
		stale = append(stale, key)
	}
	if err := m.session.Delete(ctx, stale...); err != nil {
		m.logger.Warn("account_session_delete_failed", zap.String("key", nk), zap.Error(err))
	}
	if err := m.db.WithContext(ctx).Where("key = ?", nk).Delete(&models.AccountData{}).Error; err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Keys lists the logical keys stored for an account.
func (m *AccountDataManager) Keys(ctx context.Context, accountID string) ([]string, error) {
	id, err := m.resolve(accountID)
	if err != nil {
		return nil, err
	}
	prefix := accountPrefix(id)
	seen := map[string]struct{}{}

	var durable []string
	if err := m.db.WithContext(ctx).Model(&models.AccountData{}).
		Where("account_id = ?", id).
		Pluck("key", &durable).Error; err != nil {
		m.logger.Warn("account_keys_read_failed", zap.String("account_id", id), zap.Error(err))
	}
	mirrored, err := m.session.Keys(ctx, prefix+"*")
	if err != nil {
		m.logger.Warn("account_session_keys_failed", zap.String("account_id", id), zap.Error(err))
	}

	for _, k := range append(durable, mirrored...) {
		if logical, ok := strings.CutPrefix(k, prefix); ok && logical != "" {
			seen[logical] = struct{}{}
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *AccountDataManager) ClearAccountData(ctx context.Context, accountID string) error {
	if accountID == "" {
		return ErrNoAccountContext
	}
	if err := m.session.DeletePattern(ctx, accountPrefix(accountID)+"*"); err != nil {
		m.logger.Warn("account_session_clear_failed", zap.String("account_id", accountID), zap.Error(err))
	}
	if err := m.db.WithContext(ctx).Where("account_id = ?", accountID).Delete(&models.AccountData{}).Error; err != nil {
		return fmt.Errorf("clear account data: %w", err)
	}
	m.logger.Info("account_data_cleared", zap.String("account_id", accountID))
	return nil
}

// Switch makes toID the current account. The outgoing account is read
// under the switch lock: its working set is persisted under its own
// namespace, the working set is cleared, and it is hydrated from toID's
// namespace. Switching to the current account leaves the working set
// untouched.
func (m *AccountDataManager) Switch(ctx context.Context, toID string) error {
	if toID == "" {
		return ErrNoAccountContext
	}

	m.switchMu.Lock()
	defer m.switchMu.Unlock()

	fromID := m.CurrentAccountID()
	if fromID == toID {
		return nil
	}

	m.logger.Info("account_switch_started", zap.String("from", fromID), zap.String("to", toID))

	if fromID != "" {
		if err := m.saveSessionToAccount(ctx, fromID); err != nil {
			return err
		}
	}
	if err := m.clearSession(ctx); err != nil {
		return err
	}
	m.SetCurrentAccount(toID)
	if err := m.loadAccountDataToSession(ctx, toID); err != nil {
		return err
	}

	utils.AccountSwitches.Inc()
	m.logger.Info("account_switched", zap.String("from", fromID), zap.String("to", toID))
	return nil
}

// Resume makes accountID current after a restart. The working set still
// belongs to it, so surviving values are kept and only missing keys are
// hydrated from its namespace.
func (m *AccountDataManager) Resume(ctx context.Context, accountID string) error {
	if accountID == "" {
		return ErrNoAccountContext
	}

	m.switchMu.Lock()
	defer m.switchMu.Unlock()

	keys, err := m.Keys(ctx, accountID)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if !IsSessionKey(key) {
			continue
		}
		if _, err := m.session.Get(ctx, key); err == nil {
			continue
		}
		raw, err := m.GetRaw(ctx, key, accountID)
		if err != nil {
			return err
		}
		if raw == nil {
			continue
		}
		if err := m.session.Set(ctx, key, raw, 0); err != nil {
			return fmt.Errorf("hydrate %s: %w", key, err)
		}
	}
	m.SetCurrentAccount(accountID)
	return nil
}

// Detach persists the working set of accountID, clears it and drops the
// account context. It does nothing when another account has become current
// in the meantime.
func (m *AccountDataManager) Detach(ctx context.Context, accountID string) error {
	m.switchMu.Lock()
	defer m.switchMu.Unlock()

	id := m.CurrentAccountID()
	if id == "" || id != accountID {
		return nil
	}
	if err := m.saveSessionToAccount(ctx, id); err != nil {
		return err
	}
	if err := m.clearSession(ctx); err != nil {
		return err
	}
	m.ClearCurrentAccount()
	return nil
}

// Checkpoint persists the working set of the current account and keeps
// the session as it is.
func (m *AccountDataManager) Checkpoint(ctx context.Context) error {
	m.switchMu.Lock()
	defer m.switchMu.Unlock()

	id := m.CurrentAccountID()
	if id == "" {
		return nil
	}
	return m.saveSessionToAccount(ctx, id)
}

// Forget removes every namespaced value of a deleted account. When it is
// the current account the working set is dropped without being saved.
func (m *AccountDataManager) Forget(ctx context.Context, accountID string) error {
	m.switchMu.Lock()
	defer m.switchMu.Unlock()

	if err := m.ClearAccountData(ctx, accountID); err != nil {
		return err
	}
	if m.CurrentAccountID() == accountID {
		if err := m.clearSession(ctx); err != nil {
			return err
		}
		m.ClearCurrentAccount()
	}
	return nil
}

// SetSessionValue writes a working-set value for the current account.
func (m *AccountDataManager) SetSessionValue(ctx context.Context, key string, value interface{}) error {
	return cache.SetJSON(ctx, m.session, key, value, 0)
}

// SessionValue reads a working-set value; ok is false when it is absent.
func (m *AccountDataManager) SessionValue(ctx context.Context, key string, dest interface{}) (bool, error) {
	err := cache.GetJSON(ctx, m.session, key, dest)
	if errors.Is(err, cache.ErrMiss) {
		return false, nil
	}
	return err == nil, err
}

// SyncSession mirrors a working-set value for accountID only while that
// account is current, so a request for another account never leaks into
// the active session.
func (m *AccountDataManager) SyncSession(ctx context.Context, accountID, key string, value interface{}) {
	if accountID == "" || m.CurrentAccountID() != accountID {
		return
	}
	if err := m.SetSessionValue(ctx, key, value); err != nil {
		m.logger.Warn("session_sync_failed", zap.String("key", key), zap.Error(err))
	}
}

func (m *AccountDataManager) saveSessionToAccount(ctx context.Context, accountID string) error {
	for _, key := range SessionKeys {
		raw, err := m.session.Get(ctx, key)
		if errors.Is(err, cache.ErrMiss) {
			continue
		}
		if err != nil {
			m.logger.Error("session_read_failed", zap.String("key", key), zap.Error(err))
			continue
		}
		if !json.Valid(raw) {
			m.logger.Error("session_value_malformed", zap.String("key", key))
			continue
		}
		if err := m.Store(ctx, key, json.RawMessage(raw), accountID); err != nil {
			return fmt.Errorf("save session %s: %w", key, err)
		}
	}
	return nil
}

func (m *AccountDataManager) loadAccountDataToSession(ctx context.Context, accountID string) error {
	keys, err := m.Keys(ctx, accountID)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if !IsSessionKey(key) {
			continue
		}
		raw, err := m.GetRaw(ctx, key, accountID)
		if err != nil {
			return err
		}
		if raw == nil {
			continue
		}
		if err := m.session.Set(ctx, key, raw, 0); err != nil {
			return fmt.Errorf("hydrate %s: %w", key, err)
		}
	}
	m.logger.Info("account_session_loaded", zap.String("account_id", accountID), zap.Int("keys", len(keys)))
	return nil
}

func (m *AccountDataManager) clearSession(ctx context.Context) error {
	if err := m.session.Delete(ctx, SessionKeys...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
