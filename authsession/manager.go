// Package authsession owns the session lifecycle: token acquisition through
// the OAuth redirect round-trip, proactive and reactive refresh, and
// teardown. One Manager exists per process and is the only writer of the
// session store.
package authsession

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/partsbay/storefront/authflow"
	"github.com/partsbay/storefront/backendapi"
	"github.com/partsbay/storefront/internal/config"
	interrors "github.com/partsbay/storefront/internal/errors"
	"github.com/partsbay/storefront/session"
)

// Phase is the observable state of the callback flow
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhasePendingRedirect  Phase = "pending_redirect"
	PhaseAwaitingCallback Phase = "awaiting_callback"
	PhaseExchanging       Phase = "exchanging"
	PhaseAuthenticated    Phase = "authenticated"
	PhaseFailed           Phase = "failed"
)

// Backend is the slice of the REST backend the lifecycle consumes
type Backend interface {
	ExchangeCode(ctx context.Context, code, state string) (*backendapi.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*backendapi.RefreshResponse, error)
	Logout(ctx context.Context, accessToken string) error
}

// Manager drives the session lifecycle
type Manager struct {
	cfg     config.Config
	store   session.Store
	pending *authflow.Store
	backend Backend
	log     zerolog.Logger
	nowTime func() time.Time // nowTime function (injectable for testing)

	// refreshGroup serializes refresh attempts: concurrent callers (timer
	// tick, reactive 401 path, user requests) await one underlying call.
	refreshGroup singleflight.Group

	// sessionMu orders refresh results against teardown: a refresh result is
	// re-checked and saved under the same lock teardown clears under, so a
	// logout can never be overwritten by an in-flight refresh.
	sessionMu sync.Mutex

	monitor *monitor
	phase   phaseTracker
}

// Option defines a function type to modify the Manager instance
type Option func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithLogger sets the logger
func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// New initializes a Manager with required dependencies. Optional
// configuration can be provided via options (e.g. WithNowTime for testing).
func New(cfg config.Config, store session.Store, pending *authflow.Store, backend Backend, options ...Option) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("[authsession.New] config is required")
	}
	if store == nil {
		return nil, errors.New("[authsession.New] session store is required")
	}
	if pending == nil {
		return nil, errors.New("[authsession.New] pending-state store is required")
	}
	if backend == nil {
		return nil, errors.New("[authsession.New] backend client is required")
	}

	m := &Manager{
		cfg:     cfg,
		store:   store,
		pending: pending,
		backend: backend,
		log:     zerolog.Nop(),
		nowTime: time.Now,
	}
	m.phase.set(PhaseIdle)

	for _, opt := range options {
		opt(m)
	}

	m.monitor = newMonitor(m)
	return m, nil
}

// Resume re-arms the lifecycle from persisted state on process start: if a
// session is already stored, the manager is authenticated and the expiry
// monitor runs again.
func (m *Manager) Resume() error {
	sess, err := m.store.Get()
	if err != nil {
		return errors.Wrap(err, "[Manager.Resume] store.Get")
	}
	if sess == nil || sess.AccessToken == "" {
		return nil
	}
	m.phase.set(PhaseAuthenticated)
	m.monitor.start()
	return nil
}

// Phase returns the current flow phase
func (m *Manager) Phase() Phase {
	return m.phase.get()
}

// MonitorRunning reports whether the expiry monitor is armed
func (m *Manager) MonitorRunning() bool {
	return m.monitor.running()
}

// Session returns the stored session, or nil when logged out
func (m *Manager) Session() (*session.Session, error) {
	return m.store.Get()
}

// ValidToken resolves a bearer token for an outgoing request. A fresh token
// is returned as-is with no network call; a token inside the refresh
// threshold triggers exactly one refresh shared across concurrent callers.
func (m *Manager) ValidToken(ctx context.Context) (string, error) {
	sess, err := m.store.Get()
	if err != nil {
		return "", errors.Wrap(err, "[Manager.ValidToken] store.Get")
	}
	if sess == nil || sess.AccessToken == "" {
		return "", interrors.ErrUnauthenticated
	}

	now := m.nowTime()
	if !sess.IsExpiringSoon(m.cfg.GetRefreshThreshold(), now) {
		return sess.AccessToken, nil
	}

	if !sess.HasRefreshToken() {
		// Nothing to refresh with. A token that is merely near expiry is
		// still usable; an expired one is not.
		if sess.Valid(now) {
			return sess.AccessToken, nil
		}
		return "", interrors.ErrUnauthenticated
	}

	return m.sharedRefresh(ctx)
}

// Refresh renews the access token now. Concurrent calls collapse into one
// backend request.
func (m *Manager) Refresh(ctx context.Context) error {
	_, err := m.sharedRefresh(ctx)
	return err
}

func (m *Manager) sharedRefresh(ctx context.Context) (string, error) {
	v, err, _ := m.refreshGroup.Do("refresh", func() (any, error) {
		return m.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// refresh performs the backend call and applies the result. A rejected
// refresh token tears the whole session down before the error surfaces; a
// result arriving after logout is discarded.
func (m *Manager) refresh(ctx context.Context) (string, error) {
	sess, err := m.store.Get()
	if err != nil {
		return "", errors.Wrap(err, "[Manager.refresh] store.Get")
	}
	if sess == nil || !sess.HasRefreshToken() {
		return "", interrors.ErrUnauthenticated
	}

	resp, err := m.backend.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		if interrors.Is(err, interrors.ErrSessionExpired) {
			m.teardown(ctx)
			return "", errors.Wrap(err, "[Manager.refresh] refresh token invalid")
		}
		return "", errors.Wrap(err, "[Manager.refresh] backend.Refresh")
	}

	return m.applyRefresh(resp)
}

// applyRefresh persists a refresh result. The session may have been torn
// down while the request was in flight; the re-check and the save run under
// sessionMu as one step, so logout wins over a late refresh result.
func (m *Manager) applyRefresh(resp *backendapi.RefreshResponse) (string, error) {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	current, err := m.store.Get()
	if err != nil {
		return "", errors.Wrap(err, "[Manager.refresh] store.Get")
	}
	if current == nil || current.AccessToken == "" {
		return "", interrors.ErrSessionExpired
	}

	updated := *current
	updated.AccessToken = resp.Token
	updated.ExpiresAt = m.expiryFor(resp.Token, resp.ExpiresIn)
	if resp.RefreshToken != nil && *resp.RefreshToken != "" {
		updated.RefreshToken = *resp.RefreshToken
	}

	if err := m.store.Save(&updated); err != nil {
		return "", errors.Wrap(err, "[Manager.refresh] store.Save")
	}
	m.log.Debug().Time("expires_at", updated.ExpiresAt).Msg("access token refreshed")
	return updated.AccessToken, nil
}

// Logout tears the session down. The backend is notified best-effort; the
// local state is cleared unconditionally. Calling it when already logged out
// is a no-op.
func (m *Manager) Logout(ctx context.Context) error {
	token := m.store.AccessToken()
	if token != "" {
		if err := m.backend.Logout(ctx, token); err != nil {
			m.log.Warn().Err(err).Msg("backend logout notification failed")
		}
	}
	m.teardown(ctx)
	return nil
}

// InvalidateSession is the reactive teardown path for a 401 on an
// authenticated request: the backend already considers the session dead, so
// no logout notification is sent.
func (m *Manager) InvalidateSession(ctx context.Context) {
	m.teardown(ctx)
}

func (m *Manager) teardown(_ context.Context) {
	m.sessionMu.Lock()
	if err := m.store.Clear(); err != nil {
		m.log.Error().Err(err).Msg("failed to clear session store")
	}
	m.sessionMu.Unlock()
	m.monitor.stop()
	m.phase.set(PhaseIdle)
}

// expiryFor derives the token expiry: the backend's expiresIn hint when
// present, the JWT exp claim otherwise.
func (m *Manager) expiryFor(token string, expiresIn *int) time.Time {
	if expiresIn != nil && *expiresIn > 0 {
		return m.nowTime().Add(time.Duration(*expiresIn) * time.Second)
	}
	if exp, ok := session.TokenExpiry(token); ok {
		return exp
	}
	return time.Time{}
}

// origin reduces the configured base URL to its scheme://host origin, the
// value embedded in and checked against the CSRF state.
func (m *Manager) origin() string {
	u, err := url.Parse(m.cfg.GetBaseURL())
	if err != nil || u.Scheme == "" || u.Host == "" {
		return m.cfg.GetBaseURL()
	}
	return u.Scheme + "://" + u.Host
}
