package model

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RolePlayer    UserRole = "player"
	RoleModerator UserRole = "moderator"
	RoleAdmin     UserRole = "admin"
)

type UserStatus string

const (
	StatusActive    UserStatus = "active"
	StatusSuspended UserStatus = "suspended"
	StatusBanned    UserStatus = "banned"
	StatusPending   UserStatus = "pending_verification"
)

// User is a player account. Characters, inventory and the rest of the game
// state hang off of it elsewhere; this service only carries what
// authentication needs.
type User struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Username      string     `gorm:"size:30;uniqueIndex"`
	Email         string     `gorm:"size:255;uniqueIndex"`
	PasswordHash  string     `gorm:"size:255"`
	Role          UserRole   `gorm:"size:16;default:player"`
	Status        UserStatus `gorm:"size:32;default:pending_verification"`
	IsVerified    bool
	MaxCharacters int `gorm:"default:5"`

	// Consecutive login failures and the lockout they trigger.
	FailedLogins int `gorm:"default:0"`
	LockedUntil  *time.Time

	LastLogin *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string { return "users" }

// Session is the server-side record of an issued refresh token. TokenJTI is
// the revocation handle: once IsActive flips to false the jti can never be
// used for a refresh again.
type Session struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID `gorm:"type:uuid;index"`
	TokenJTI     string    `gorm:"size:36;uniqueIndex"`
	DeviceInfo   string    `gorm:"size:255"`
	IPAddress    string    `gorm:"size:64"`
	UserAgent    string    `gorm:"size:255"`
	IsActive     bool      `gorm:"default:true"`
	CreatedAt    time.Time
	ExpiresAt    time.Time
	LastActivity time.Time
}

func (Session) TableName() string { return "user_sessions" }

type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	UserID          uuid.UUID
	RefreshTokenJTI string
}
