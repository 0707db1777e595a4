package dto

import (
	"time"

	"github.com/google/uuid"
)

type RegisterDTO struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=30"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,strongpwd"`
}

type LoginDTO struct {
	// Identifier is a username or an email, matched case-insensitively.
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password"   validate:"required"`
	RememberMe bool   `json:"remember_me"`
	DeviceInfo string `json:"device_info"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutDTO struct {
	AccessToken string `json:"-"`
	RevokeAll   bool   `json:"revoke_all_sessions"`
}

type ChangePasswordDTO struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,strongpwd"`
}

// SessionMeta carries request metadata recorded on the session row.
type SessionMeta struct {
	DeviceInfo string
	IPAddress  string
	UserAgent  string
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type UserResponse struct {
	ID            uuid.UUID  `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	Status        string     `json:"status"`
	IsVerified    bool       `json:"is_verified"`
	MaxCharacters int        `json:"max_characters"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type SessionResponse struct {
	ID           uuid.UUID `json:"id"`
	DeviceInfo   string    `json:"device_info,omitempty"`
	IPAddress    string    `json:"ip_address,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastActivity time.Time `json:"last_activity"`
}

type AuthResponse struct {
	Message string        `json:"message"`
	Success bool          `json:"success"`
	User    UserResponse  `json:"user"`
	Tokens  TokenResponse `json:"tokens"`
}
