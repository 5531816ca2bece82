package session_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/partsbay/storefront/session"
	"github.com/partsbay/storefront/storage"
)

func testSession() *session.Session {
	return &session.Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Date(2026, 8, 30, 13, 0, 0, 0, time.UTC),
		CreatedAt:    time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		User: session.User{
			ID:    "user-1",
			Name:  "John Doe",
			Email: "john.doe@example.com",
		},
	}
}

func TestKVStore_SaveAndGet(t *testing.T) {
	store := session.NewKVStore(storage.NewMemory())

	require.NoError(t, store.Save(testSession()))

	got, err := store.Get()
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "access-1", got.AccessToken)
	require.Equal(t, "refresh-1", got.RefreshToken)
	require.True(t, got.ExpiresAt.Equal(testSession().ExpiresAt))
	require.Equal(t, "john.doe@example.com", got.User.Email)
}

func TestKVStore_GetWhenEmpty(t *testing.T) {
	store := session.NewKVStore(storage.NewMemory())

	got, err := store.Get()
	require.NoError(t, err)
	require.Nil(t, got)
	require.Empty(t, store.AccessToken())
}

func TestKVStore_SaveWithoutRefreshTokenDropsOldOne(t *testing.T) {
	store := session.NewKVStore(storage.NewMemory())
	require.NoError(t, store.Save(testSession()))

	rotated := testSession()
	rotated.RefreshToken = ""
	require.NoError(t, store.Save(rotated))

	got, err := store.Get()
	require.NoError(t, err)
	require.Empty(t, got.RefreshToken)
}

func TestKVStore_ClearRemovesEverything(t *testing.T) {
	kv := storage.NewMemory()
	store := session.NewKVStore(kv)
	require.NoError(t, store.Save(testSession()))

	// A pending-auth nonce shares the storage and must go too
	require.NoError(t, kv.Set("auth_state", `{"nonce":"n"}`))

	require.NoError(t, store.Clear())

	got, err := store.Get()
	require.NoError(t, err)
	require.Nil(t, got)
	require.Empty(t, store.AccessToken())

	_, err = kv.Get("auth_state")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestKVStore_ClearIsIdempotent(t *testing.T) {
	store := session.NewKVStore(storage.NewMemory())
	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
}

func TestKVStore_SaveRejectsEmptyToken(t *testing.T) {
	store := session.NewKVStore(storage.NewMemory())
	require.Error(t, store.Save(&session.Session{}))
	require.Error(t, store.Save(nil))
}

func TestKVStore_ReadersNeverSeeHalfWrittenSession(t *testing.T) {
	store := session.NewKVStore(storage.NewMemory())

	a := testSession()
	a.AccessToken = "access-A"
	a.RefreshToken = "refresh-A"
	b := testSession()
	b.AccessToken = "access-B"
	b.RefreshToken = "refresh-B"

	require.NoError(t, store.Save(a))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5000; i++ {
			if i%2 == 0 {
				_ = store.Save(b)
			} else {
				_ = store.Save(a)
			}
		}
	}()

	// Every read must pair the access token with its own refresh token,
	// never a mix of the two sessions mid-write
	for {
		select {
		case <-done:
			return
		default:
		}

		got, err := store.Get()
		require.NoError(t, err)
		require.NotNil(t, got)
		switch got.AccessToken {
		case "access-A":
			require.Equal(t, "refresh-A", got.RefreshToken)
		case "access-B":
			require.Equal(t, "refresh-B", got.RefreshToken)
		default:
			t.Fatalf("unexpected access token %q", got.AccessToken)
		}
	}
}

// brokenKV simulates an unavailable storage backend
type brokenKV struct{}

func (brokenKV) Get(string) (string, error) { return "", errors.New("storage unavailable") }
func (brokenKV) Set(string, string) error   { return errors.New("storage unavailable") }
func (brokenKV) Delete(string) error        { return errors.New("storage unavailable") }

func TestKVStore_AccessTokenFailsOpen(t *testing.T) {
	store := session.NewKVStore(brokenKV{})

	// Unavailable storage reads as "unauthenticated", never an error
	require.Empty(t, store.AccessToken())

	_, err := store.Get()
	require.Error(t, err)
}
