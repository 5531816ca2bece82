package authsession

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/partsbay/storefront/authflow"
	interrors "github.com/partsbay/storefront/internal/errors"
	"github.com/partsbay/storefront/session"
)

// Callback carries the query parameters the identity provider sent back
type Callback struct {
	Code                 string
	State                string
	ProviderError        string
	ProviderErrorDetails string
}

// BeginLogin starts a login attempt: a pending state is minted and
// persisted, and the provider authorize URL embedding it is returned for the
// browser redirect. returnURL is where the user resumes after success.
func (m *Manager) BeginLogin(returnURL string) (string, error) {
	pending := authflow.NewPendingState(m.origin(), returnURL, m.nowTime())
	if err := m.pending.Put(pending); err != nil {
		return "", errors.Wrap(err, "[Manager.BeginLogin] pending.Put")
	}

	state, err := pending.Encode()
	if err != nil {
		return "", errors.Wrap(err, "[Manager.BeginLogin] state encode")
	}

	authURL := m.oauthConfig().AuthCodeURL(
		state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)

	m.phase.set(PhasePendingRedirect)
	m.log.Info().Str("return_url", returnURL).Msg("login initiated")
	return authURL, nil
}

// AwaitCallback marks the round-trip as in flight. The HTTP layer calls it
// once the redirect response has been written.
func (m *Manager) AwaitCallback() {
	m.phase.set(PhaseAwaitingCallback)
}

// HandleCallback validates the provider's answer and exchanges the code for
// a session. State validation runs before any network call; the pending
// state is consumed exactly once, so a duplicate callback cannot re-exchange
// a code. On success the session is persisted, the expiry monitor starts,
// and the return URL of the original attempt is returned.
func (m *Manager) HandleCallback(ctx context.Context, cb Callback) (string, error) {
	if cb.ProviderError != "" {
		return "", m.fail(errors.Wrapf(interrors.ErrProviderRejected, "%s: %s", cb.ProviderError, cb.ProviderErrorDetails))
	}
	if cb.Code == "" || cb.State == "" {
		return "", m.fail(interrors.Wrapf(interrors.ErrCSRFStateInvalid, "missing code or state parameter"))
	}

	decoded, err := authflow.Decode(cb.State)
	if err != nil {
		return "", m.fail(err)
	}
	if err := decoded.Validate(m.origin(), m.nowTime(), m.cfg.GetStateMaxAge()); err != nil {
		return "", m.fail(err)
	}

	// Consume the persisted state before the exchange
	pending, err := m.pending.Take(decoded.Nonce)
	if err != nil {
		return "", m.fail(err)
	}

	m.phase.set(PhaseExchanging)

	resp, err := m.backend.ExchangeCode(ctx, cb.Code, cb.State)
	if err != nil {
		return "", m.fail(errors.Wrap(err, "[Manager.HandleCallback] exchange"))
	}

	sess := &session.Session{
		AccessToken: resp.Token,
		ExpiresAt:   m.expiryFor(resp.Token, resp.ExpiresIn),
		CreatedAt:   m.nowTime(),
		User:        resp.User,
	}
	if resp.RefreshToken != nil {
		sess.RefreshToken = *resp.RefreshToken
	}

	if err := m.store.Save(sess); err != nil {
		return "", m.fail(errors.Wrap(err, "[Manager.HandleCallback] store.Save"))
	}

	m.phase.set(PhaseAuthenticated)
	m.monitor.start()
	m.log.Info().Str("user_id", sess.User.ID).Msg("session established")
	return pending.ReturnURL, nil
}

func (m *Manager) fail(err error) error {
	// A CSRF rejection is a security event: local credentials are cleared as
	// part of the recovery, never silently ignored.
	if interrors.Is(err, interrors.ErrCSRFStateInvalid) {
		m.teardown(context.Background())
	}
	m.phase.set(PhaseFailed)
	m.log.Warn().Err(err).Msg("login attempt failed")
	return err
}

func (m *Manager) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:    m.cfg.GetGoogleClientID(),
		RedirectURL: m.origin() + m.cfg.GetCallbackPath(),
		Endpoint: oauth2.Endpoint{
			AuthURL: m.cfg.GetGoogleAuthURL(),
		},
		Scopes: []string{oidc.ScopeOpenID, "profile", "email"},
	}
}
