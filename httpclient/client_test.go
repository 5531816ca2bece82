package httpclient_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/partsbay/storefront/httpclient"
	"github.com/partsbay/storefront/internal/errors"
)

// fakeSource answers ValidToken from a canned value and records invalidations
type fakeSource struct {
	token       string
	err         error
	invalidated int
	tokenCalls  int
}

func (f *fakeSource) ValidToken(_ context.Context) (string, error) {
	f.tokenCalls++
	return f.token, f.err
}

func (f *fakeSource) InvalidateSession(_ context.Context) {
	f.invalidated++
}

func TestDo(t *testing.T) {
	t.Run("attaches the bearer token", func(t *testing.T) {
		var gotAuth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			_, _ = w.Write([]byte("ok"))
		}))
		defer srv.Close()

		client := httpclient.New(&fakeSource{token: "access-token"})
		resp, err := client.Get(context.Background(), srv.URL)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, "Bearer access-token", gotAuth)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Equal(t, "ok", string(body))
	})

	t.Run("overrides a caller-supplied Authorization header", func(t *testing.T) {
		var gotAuth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
		}))
		defer srv.Close()

		client := httpclient.New(&fakeSource{token: "access-token"})
		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer forged")

		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, "Bearer access-token", gotAuth)
	})

	t.Run("401 invalidates the session exactly once and never retries", func(t *testing.T) {
		var requests int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		src := &fakeSource{token: "stale-token"}
		client := httpclient.New(src)
		_, err := client.Get(context.Background(), srv.URL)
		require.ErrorIs(t, err, errors.ErrSessionExpired)
		require.Equal(t, 1, src.invalidated)
		require.Equal(t, 1, requests)
	})

	t.Run("other error statuses pass through untouched", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		src := &fakeSource{token: "access-token"}
		client := httpclient.New(src)
		resp, err := client.Get(context.Background(), srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
		require.Equal(t, 0, src.invalidated)
	})

	t.Run("no session means no request is sent", func(t *testing.T) {
		var requests int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
		}))
		defer srv.Close()

		client := httpclient.New(&fakeSource{err: errors.ErrUnauthenticated})
		_, err := client.Get(context.Background(), srv.URL)
		require.ErrorIs(t, err, errors.ErrUnauthenticated)
		require.Equal(t, 0, requests)
	})

	t.Run("transport failure maps to a network error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // Deliberately closed before use

		src := &fakeSource{token: "access-token"}
		client := httpclient.New(src)
		_, err := client.Get(context.Background(), srv.URL)
		require.ErrorIs(t, err, errors.ErrNetworkFailure)
		require.Equal(t, 0, src.invalidated)
	})
}
