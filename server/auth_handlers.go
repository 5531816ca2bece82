package server

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/partsbay/storefront/authsession"
	"github.com/partsbay/storefront/internal/errors"
)

// LoginRedirectHandler starts a login attempt and sends the browser to the
// identity provider (GET /auth/login)
func (s *Server) LoginRedirectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		returnURL := safeReturnTarget(r.URL.Query().Get("return_url"))

		authURL, err := s.sessions.BeginLogin(returnURL)
		if err != nil {
			log.Err(err).Msg("failed to initiate login")
			http.Error(w, "Failed to initiate login", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, authURL, http.StatusFound)
		s.sessions.AwaitCallback()
	}
}

// OAuthCallbackHandler completes the redirect round-trip (GET /auth/google/callback)
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		cb := authsession.Callback{
			Code:                 query.Get("code"),
			State:                query.Get("state"),
			ProviderError:        query.Get("error"),
			ProviderErrorDetails: query.Get("error_description"),
		}

		returnURL, err := s.sessions.HandleCallback(r.Context(), cb)
		if err != nil {
			// The interstitial keeps the message readable before the browser
			// navigates to the failure page
			s.renderFailureInterstitial(w, failureMessage(err))
			return
		}

		if returnURL = safeReturnTarget(returnURL); returnURL == "" {
			returnURL = RouteAccount
		}
		// The redirect target carries no code or state parameters, so
		// back-navigation cannot re-trigger the exchange
		s.renderSuccessInterstitial(w, returnURL)
	}
}

// LogoutHandler tears the session down (POST /auth/logout)
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.sessions.Logout(r.Context()); err != nil {
			log.Err(err).Msg("logout failed")
			http.Error(w, "Logout failed", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// LoginFailedHandler renders the failure page (GET /auth/failed)
func (s *Server) LoginFailedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msg := r.URL.Query().Get("error")
		if msg == "" {
			msg = "Sign-in failed."
		}
		s.renderFailurePage(w, msg)
	}
}

// HealthHandler reports liveness (GET /healthz)
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

// safeReturnTarget keeps post-login redirects on this site. Only rooted
// paths pass; an absolute or protocol-relative URL would turn the success
// redirect into an open redirect and yields empty instead.
func safeReturnTarget(raw string) string {
	if !strings.HasPrefix(raw, "/") {
		return ""
	}
	if strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return ""
	}
	return raw
}

// failureMessage maps the error taxonomy to what the user should read.
// Network failures invite a retry; everything else requires a fresh login.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, errors.ErrProviderRejected):
		return "Google rejected or cancelled the sign-in request."
	case errors.Is(err, errors.ErrCSRFStateInvalid):
		return "This sign-in link is invalid or has expired. Please sign in again."
	case errors.Is(err, errors.ErrNetworkFailure):
		return "We couldn't reach the sign-in service. Please try again."
	case errors.Is(err, errors.ErrExchangeFailed):
		return "Sign-in could not be completed. Please sign in again."
	default:
		return "Sign-in failed. Please try again."
	}
}
