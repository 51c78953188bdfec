package domain

import "time"

// TokenPair is what login and refresh return: the short-lived access token
// (JWT) and the opaque rotating refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    int    `json:"expires_in"`           // seconds until access expiry
}

// Session bundles a token pair with the sanitized owner profile for the
// login/refresh response body.
type Session struct {
	Tokens TokenPair
	User   Profile
}

// RefreshToken models the stored refresh token record. Only the fingerprint
// of the opaque value is persisted, never the value itself.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string // HMAC-SHA256 fingerprint (base64url)
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
