// Package domain defines the persistence models for users, friendships, and
// gaming schedules. These types are mapped with GORM and form the core data
// layer of the scheduling application.
package domain

import (
	"time"
)

// User represents a registered account. The username and email are each
// globally unique; a registration attempt that collides with either fails
// with a conflict rather than overwriting.
//
// Fields:
//   - ID: auto-increment primary key.
//   - Username: unique handle used for login and friend lookup
//     (case-sensitive exact match).
//   - Email: unique contact address.
//   - PasswordHash: bcrypt digest; never serialized to JSON.
//   - CreatedAt: timestamp managed by GORM.
type User struct {
	ID           uint      `json:"id"         gorm:"primaryKey"`
	Username     string    `json:"username"   gorm:"type:varchar(64);not null;uniqueIndex:ux_users_username"`
	Email        string    `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	PasswordHash string    `json:"-"          gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Friendship is an unordered pair of user IDs stored canonically as
// (UserLowID, UserHighID) with UserLowID < UserHighID. The composite primary
// key on the canonical pair is the storage-level uniqueness guarantee: for
// any two users at most one row exists regardless of who initiated it.
//
// Fields:
//   - UserLowID / UserHighID: the pair members, canonically ordered.
//   - EstablishedAt: when the friendship was created.
//   - UserLow / UserHigh: FK associations; rows are removed when either
//     member account is deleted.
type Friendship struct {
	UserLowID     uint      `json:"user_low_id"   gorm:"primaryKey;autoIncrement:false"`
	UserHighID    uint      `json:"user_high_id"  gorm:"primaryKey;autoIncrement:false"`
	EstablishedAt time.Time `json:"established_at"`

	UserLow  User `json:"-" gorm:"foreignKey:UserLowID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	UserHigh User `json:"-" gorm:"foreignKey:UserHighID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Friendship.
func (Friendship) TableName() string { return "friendships" }

// CanonicalPair normalizes an unordered pair of user IDs to (min, max).
// It is the single source of truth for friendship identity and must be
// applied on every read and write path; caller-supplied ordering is never
// trusted.
func CanonicalPair(a, b uint) (low, high uint) {
	if a < b {
		return a, b
	}
	return b, a
}

// Schedule is a recurring gaming-availability window owned by exactly one
// user. The owner's username is denormalized at write time for display and
// is not kept in sync with later username changes.
//
// Fields:
//   - ID: auto-increment primary key.
//   - UserID: owning user; indexed, cascade-deleted with the owner.
//   - Username: owner's username captured at creation/update time.
//   - GameTitle: what is being played.
//   - DaysOfWeek: non-empty subset of the recognized day tokens, stored
//     upper-case as a JSON array column.
//   - StartTime / EndTime: times of day in "HH:MM" 24h form.
//   - IsWeekly: whether the window repeats every week.
//   - Description: optional free text.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Schedule struct {
	ID          uint      `json:"id"           gorm:"primaryKey"`
	UserID      uint      `json:"user_id"      gorm:"not null;index:idx_user_schedules"`
	Username    string    `json:"username"     gorm:"type:varchar(64);not null"`
	GameTitle   string    `json:"game_title"   gorm:"type:varchar(255);not null"`
	DaysOfWeek  []string  `json:"days_of_week" gorm:"serializer:json;type:text;not null"`
	StartTime   string    `json:"start_time"   gorm:"type:varchar(5);not null"`
	EndTime     string    `json:"end_time"     gorm:"type:varchar(5);not null"`
	IsWeekly    bool      `json:"is_weekly"    gorm:"not null"`
	Description *string   `json:"description,omitempty" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// User is the owning account. Schedules are cascade-deleted when the
	// owner is removed.
	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Schedule.
func (Schedule) TableName() string { return "schedules" }
