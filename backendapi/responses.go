package backendapi

import "github.com/partsbay/storefront/session"

// TokenResponse is the backend's answer to a successful code exchange or
// password login.
type TokenResponse struct {
	// Token is the bearer credential for subsequent API calls
	Token string `json:"token"`

	// RefreshToken is used to mint new access tokens without
	// re-authenticating. Absent for backends that do not issue one.
	RefreshToken *string `json:"refreshToken,omitempty"`

	// ExpiresIn is the access token lifetime in seconds. When absent the
	// expiry is derived from the token's exp claim.
	ExpiresIn *int `json:"expiresIn,omitempty"`

	// User is the profile snapshot to display
	User session.User `json:"user"`
}

// RefreshResponse is the backend's answer to a refresh request. The refresh
// token is present only when the backend rotates it.
type RefreshResponse struct {
	Token        string  `json:"token"`
	ExpiresIn    *int    `json:"expiresIn,omitempty"`
	RefreshToken *string `json:"refreshToken,omitempty"`
}

// errorResponse is the backend's error payload shape. Both fields are
// optional; whichever is present feeds the surfaced message.
type errorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func (e errorResponse) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}
