package model

import "time"

type AccountStatus string

const (
	AccountStatusActive  AccountStatus = "active"
	AccountStatusExpired AccountStatus = "expired"
	AccountStatusRevoked AccountStatus = "revoked"
)

// Account is a platform identity bound to one user.
type Account struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	Platform       string        `json:"platform"`
	PlatformUserID string        `json:"platform_user_id"`
	Username       string        `json:"username"`
	AvatarURL      *string       `json:"avatar_url,omitempty"`
	AccessToken    string        `json:"-"`
	RefreshToken   string        `json:"-"`
	TokenExpiresAt *time.Time    `json:"token_expires_at,omitempty"`
	Status         AccountStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (a *Account) IsActive() bool { return a != nil && a.Status == AccountStatusActive }
