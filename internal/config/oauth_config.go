package config

import (
	"os"
	"time"
)

type OAuthConfig interface {
	GetGoogleClientID() string
	GetGoogleAuthURL() string
	GetCallbackPath() string
	GetStateMaxAge() time.Duration
	GetExchangeTimeout() time.Duration
	GetSuccessRedirectDelay() time.Duration
	GetFailureRedirectDelay() time.Duration
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

func (OAuth) GetGoogleClientID() string {
	return GetEnv("GOOGLE_CLIENT_ID", "")
}

func (OAuth) GetGoogleAuthURL() string {
	return GetEnv("GOOGLE_AUTH_URL", "https://accounts.google.com/o/oauth2/v2/auth")
}

func (OAuth) GetCallbackPath() string {
	return GetEnv("OAUTH_CALLBACK_PATH", "/auth/google/callback")
}

func (OAuth) GetStateMaxAge() time.Duration {
	return 10 * time.Minute
}

func (OAuth) GetExchangeTimeout() time.Duration {
	return 10 * time.Second
}

func (OAuth) GetSuccessRedirectDelay() time.Duration {
	return 1500 * time.Millisecond
}

func (OAuth) GetFailureRedirectDelay() time.Duration {
	return 2 * time.Second
}

type SessionConfig interface {
	GetRefreshThreshold() time.Duration
	GetMonitorInterval() time.Duration
	GetStoreFile() string
	GetStoreKey() string
}

type Sessions struct{}

var _ SessionConfig = Sessions{}

// GetRefreshThreshold is how close to expiry a token may get before a
// proactive refresh is attempted.
func (Sessions) GetRefreshThreshold() time.Duration {
	return 5 * time.Minute
}

func (Sessions) GetMonitorInterval() time.Duration {
	return 60 * time.Second
}

// GetStoreFile returns the path of the file-backed token store. Empty means
// sessions are kept in memory only.
func (Sessions) GetStoreFile() string {
	return os.Getenv("SESSION_STORE_FILE")
}

// GetStoreKey returns the hex-encoded 32-byte key used to encrypt the
// file-backed token store at rest.
func (Sessions) GetStoreKey() string {
	return os.Getenv("SESSION_STORE_KEY")
}
