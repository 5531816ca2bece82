package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is the denormalized profile snapshot returned by the backend on
// login. It is display data only; authorization decisions belong to the
// backend.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture,omitempty"`
}

// Session is the authenticated user's current credential set.
type Session struct {
	// Tokens (refresh is optional, access is the bearer credential)
	AccessToken  string
	RefreshToken string

	// Session management
	ExpiresAt time.Time
	CreatedAt time.Time

	// Profile snapshot
	User User
}

// Valid reports whether the session can be used without a refresh attempt:
// an access token is present and its expiry is known and in the future.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.AccessToken == "" {
		return false
	}
	return !s.ExpiresAt.IsZero() && s.ExpiresAt.After(now)
}

// IsExpiringSoon reports whether the access token expires within threshold.
// A session with no known expiry is always expiring soon.
func (s *Session) IsExpiringSoon(threshold time.Duration, now time.Time) bool {
	if s == nil || s.ExpiresAt.IsZero() {
		return true
	}
	return now.Add(threshold).After(s.ExpiresAt)
}

// HasRefreshToken reports whether a refresh token is available
func (s *Session) HasRefreshToken() bool {
	return s != nil && s.RefreshToken != ""
}

// TokenExpiry extracts the expiry hint from a JWT access token's exp claim.
// The token is opaque to this client and is not verified here; the claim is
// only a fallback for backends that omit expires_in.
func TokenExpiry(rawToken string) (time.Time, bool) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(rawToken, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
