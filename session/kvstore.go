package session

import (
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/partsbay/storefront/storage"
)

// Persisted key layout. The names mirror what the web client historically
// stored, so a backend migration can read either side.
const (
	keyAuthToken    = "auth_token"
	keyRefreshToken = "refresh_token"
	keyUser         = "user"
	keyExpiresAt    = "token_expires_at" // epoch millis, as a string
	keyCreatedAt    = "session_created_at"

	// pendingStateKey is owned by the authflow package; Clear wipes it so a
	// logged-out process holds no leftover nonce.
	pendingStateKey = "auth_state"
)

// KVStore maps the Session onto a flat key-value layout over a storage.KV.
// The session spans several keys, so every operation runs under one mutex:
// a reader never observes a half-written session.
type KVStore struct {
	mu sync.Mutex
	kv storage.KV
}

var _ Store = (*KVStore)(nil)

// NewKVStore creates a session store over the given key-value backend
func NewKVStore(kv storage.KV) *KVStore {
	return &KVStore{kv: kv}
}

// Get returns the stored session, or nil when none exists
func (s *KVStore) Get() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.kv.Get(keyAuthToken)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sess := &Session{AccessToken: token}

	if refresh, err := s.kv.Get(keyRefreshToken); err == nil {
		sess.RefreshToken = refresh
	}
	if millis, err := s.kv.Get(keyExpiresAt); err == nil {
		if n, parseErr := strconv.ParseInt(millis, 10, 64); parseErr == nil {
			sess.ExpiresAt = time.UnixMilli(n)
		}
	}
	if millis, err := s.kv.Get(keyCreatedAt); err == nil {
		if n, parseErr := strconv.ParseInt(millis, 10, 64); parseErr == nil {
			sess.CreatedAt = time.UnixMilli(n)
		}
	}
	if raw, err := s.kv.Get(keyUser); err == nil {
		_ = json.Unmarshal([]byte(raw), &sess.User) // Malformed profile data is display-only, not fatal
	}

	return sess, nil
}

// Save overwrites all session fields
func (s *KVStore) Save(sess *Session) error {
	if sess == nil {
		return errors.New("session cannot be nil")
	}
	if sess.AccessToken == "" {
		return errors.New("session access token cannot be empty")
	}

	userJSON, err := json.Marshal(sess.User)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Set(keyAuthToken, sess.AccessToken); err != nil {
		return err
	}
	if sess.RefreshToken != "" {
		if err := s.kv.Set(keyRefreshToken, sess.RefreshToken); err != nil {
			return err
		}
	} else if err := s.kv.Delete(keyRefreshToken); err != nil {
		return err
	}
	if err := s.kv.Set(keyExpiresAt, strconv.FormatInt(sess.ExpiresAt.UnixMilli(), 10)); err != nil {
		return err
	}
	if err := s.kv.Set(keyCreatedAt, strconv.FormatInt(sess.CreatedAt.UnixMilli(), 10)); err != nil {
		return err
	}
	return s.kv.Set(keyUser, string(userJSON))
}

// Clear removes the session and any pending-auth state
func (s *KVStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, key := range []string{keyAuthToken, keyRefreshToken, keyUser, keyExpiresAt, keyCreatedAt, pendingStateKey} {
		if err := s.kv.Delete(key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// AccessToken returns the stored access token, or empty when absent or the
// backend is unavailable
func (s *KVStore) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.kv.Get(keyAuthToken)
	if err != nil {
		return ""
	}
	return token
}
