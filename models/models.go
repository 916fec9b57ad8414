package models

import "time"

const (
	MaxAccountSlots = 3
	DateLayout      = "2006-01-02"
)

type Account struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Slot         int       `gorm:"uniqueIndex;not null" json:"slot"`
	Name         string    `gorm:"not null" json:"name"`
	DateOfBirth  string    `gorm:"size:10" json:"date_of_birth"`
	Icon         string    `gorm:"default:om" json:"icon"`
	PasswordHash string    `json:"-"`
	// TokenVersion is embedded in issued tokens; logout bumps it.
	TokenVersion int       `gorm:"not null;default:0" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// DailyActivity is the jaap count of one account on one calendar day.
type DailyActivity struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	AccountID string    `gorm:"size:36;not null;uniqueIndex:idx_activity_account_date" json:"-"`
	Date      string    `gorm:"size:10;not null;uniqueIndex:idx_activity_account_date" json:"date"`
	Count     int       `gorm:"not null;default:0" json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// DailyTimeSpent is the number of seconds an account spent in the app on one day.
type DailyTimeSpent struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	AccountID    string    `gorm:"size:36;not null;uniqueIndex:idx_time_account_date" json:"-"`
	Date         string    `gorm:"size:10;not null;uniqueIndex:idx_time_account_date" json:"date"`
	TimeSpent    int       `gorm:"not null;default:0" json:"time_spent"`
	LastActivity time.Time `json:"last_activity"`
}

func (DailyTimeSpent) TableName() string {
	return "time_tracking"
}

// AccountData holds one namespaced value (key is "account_<id>_<key>").
type AccountData struct {
	Key       string    `gorm:"primaryKey;size:255" json:"key"`
	AccountID string    `gorm:"size:36;index;not null" json:"account_id"`
	Data      string    `gorm:"type:text" json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

type Goal struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	AccountID string    `gorm:"size:36;not null;uniqueIndex:idx_goal_account_period" json:"-"`
	Period    string    `gorm:"size:16;not null;uniqueIndex:idx_goal_account_period" json:"period"`
	Target    int       `gorm:"not null" json:"target"`
	EditCount int       `gorm:"not null;default:0" json:"edit_count"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Preference is a device-level flag, shared by every account slot.
type Preference struct {
	Key       string    `gorm:"primaryKey;size:64" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// All lists every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Account{},
		&DailyActivity{},
		&DailyTimeSpent{},
		&AccountData{},
		&Goal{},
		&Preference{},
	}
}
