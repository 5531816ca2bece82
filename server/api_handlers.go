package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/partsbay/storefront/internal/errors"
)

// MeHandler proxies the profile of the signed-in user from the backend
// through the authenticated request wrapper (GET /api/me)
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := s.api.Get(r.Context(), s.config.GetBackendURL()+"/auth/me")
		if err != nil {
			writeAPIError(w, err)
			return
		}
		defer resp.Body.Close()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.StatusCode)
		if _, err := io.Copy(w, resp.Body); err != nil {
			log.Err(err).Msg("failed to stream profile response")
		}
	}
}

// AccountHandler renders a minimal account page from the stored profile
// snapshot (GET /account, session required)
func (s *Server) AccountHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessions.Session()
		if err != nil || sess == nil {
			http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(sess.User); err != nil {
			log.Err(err).Msg("failed to encode account response")
		}
	}
}

func writeAPIError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case errors.Is(err, errors.ErrUnauthenticated):
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthenticated","message":"Sign in to continue"}`))
	case errors.Is(err, errors.ErrSessionExpired):
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"session_expired","message":"Your session has expired, sign in again"}`))
	case errors.Is(err, errors.ErrNetworkFailure):
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"upstream_unreachable","message":"The service is temporarily unavailable"}`))
	default:
		log.Err(err).Msg("api request failed")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal","message":"Something went wrong"}`))
	}
}
