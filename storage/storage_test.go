package storage_test

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/partsbay/storefront/storage"
)

func testKey(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return hex.EncodeToString(key)
}

func TestMemory_SetGetDelete(t *testing.T) {
	kv := storage.NewMemory()

	_, err := kv.Get("missing")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, kv.Set("auth_token", "tok"))
	got, err := kv.Get("auth_token")
	require.NoError(t, err)
	require.Equal(t, "tok", got)

	require.NoError(t, kv.Delete("auth_token"))
	_, err = kv.Get("auth_token")
	require.ErrorIs(t, err, storage.ErrNotFound)

	// Deleting a missing key is not an error
	require.NoError(t, kv.Delete("auth_token"))
}

func TestMemory_EmptyKeyRejected(t *testing.T) {
	kv := storage.NewMemory()
	require.Error(t, kv.Set("", "v"))
	_, err := kv.Get("")
	require.Error(t, err)
	require.Error(t, kv.Delete(""))
}

func TestFile_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.store")
	key := testKey(t)

	kv, err := storage.NewFile(path, key)
	require.NoError(t, err)
	require.NoError(t, kv.Set("auth_token", "tok"))
	require.NoError(t, kv.Set("refresh_token", "ref"))
	require.NoError(t, kv.Delete("refresh_token"))

	reopened, err := storage.NewFile(path, key)
	require.NoError(t, err)

	got, err := reopened.Get("auth_token")
	require.NoError(t, err)
	require.Equal(t, "tok", got)

	_, err = reopened.Get("refresh_token")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFile_EncryptedAtRest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.store")

	kv, err := storage.NewFile(path, testKey(t))
	require.NoError(t, err)
	require.NoError(t, kv.Set("auth_token", "super-secret-token"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "super-secret-token")
}

func TestFile_WrongKeyRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.store")

	kv, err := storage.NewFile(path, testKey(t))
	require.NoError(t, err)
	require.NoError(t, kv.Set("auth_token", "tok"))

	_, err = storage.NewFile(path, testKey(t))
	require.Error(t, err)
}

func TestFile_KeyValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.store")

	_, err := storage.NewFile(path, "not-hex")
	require.Error(t, err)

	_, err = storage.NewFile(path, "abcd") // Too short
	require.Error(t, err)

	_, err = storage.NewFile("", testKey(t))
	require.Error(t, err)
}
