package model

import (
	"time"

	"github.com/golang-jwt/jwt"
)

// OAuthState is what an issued CSRF state token resolves to.
type OAuthState struct {
	UserID    string    `json:"user_id"`
	Platform  string    `json:"platform"`
	CreatedAt time.Time `json:"created_at"`
}

// UserClaims are the bearer token claims accepted by the API.
type UserClaims struct {
	UserName string `json:"user_name,omitempty"`
	jwt.StandardClaims
}
