package models

import (
	"time"

	"github.com/golang-jwt/jwt"
)

// Claims carried inside an access token. PinConfigured mirrors whether the
// upstream identity service has a transaction PIN on file for the user, so
// PIN-gated flows can short-circuit before any network call.
type Claims struct {
	UserID        string `json:"user_id"`
	SessionID     string `json:"session_id"`
	PinConfigured bool   `json:"pin_configured"`
	jwt.StandardClaims
}

// Session is the server-side record of an authenticated client, looked up by
// refresh token.
type Session struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	PinConfigured bool      `json:"pinConfigured"`
	RefreshToken  string    `json:"refreshToken"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// Tokens is the access/refresh pair issued on session creation.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
