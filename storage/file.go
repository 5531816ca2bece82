package storage

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

// File is a KV backed by a single encrypted JSON file. Values are held in
// memory and flushed on every write, so reads never touch the disk after the
// initial load. The file is encrypted at rest with XChaCha20-Poly1305 because
// it holds bearer credentials.
type File struct {
	mu     sync.RWMutex
	path   string
	key    []byte
	values map[string]string
}

// NewFile opens or creates an encrypted file store. hexKey must decode to 32
// bytes.
func NewFile(path, hexKey string) (*File, error) {
	if path == "" {
		return nil, errors.New("path cannot be empty")
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid store key: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("store key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}

	f := &File{
		path:   path,
		key:    key,
		values: make(map[string]string),
	}
	if err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

// Get retrieves a value by key
func (f *File) Get(key string) (string, error) {
	if key == "" {
		return "", errors.New("key cannot be empty")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	value, exists := f.values[key]
	if !exists {
		return "", ErrNotFound
	}
	return value, nil
}

// Set stores a value and flushes the file before returning
func (f *File) Set(key, value string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.values[key] = value
	return f.flush()
}

// Delete removes a value and flushes the file before returning
func (f *File) Delete(key string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.values, key)
	return f.flush()
}

func (f *File) load() error {
	raw, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil // First run, nothing to load
	}
	if err != nil {
		return fmt.Errorf("failed to read store file: %w", err)
	}

	aead, err := chacha20poly1305.NewX(f.key)
	if err != nil {
		return err
	}
	if len(raw) < aead.NonceSize() {
		return errors.New("store file truncated")
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return fmt.Errorf("failed to decrypt store file: %w", err)
	}

	if err := json.Unmarshal(plaintext, &f.values); err != nil {
		return fmt.Errorf("failed to parse store file: %w", err)
	}
	return nil
}

// flush writes the encrypted file atomically: temp file first, then rename,
// so a crash mid-write never leaves a corrupt store.
func (f *File) flush() error {
	plaintext, err := json.Marshal(f.values)
	if err != nil {
		return err
	}

	aead, err := chacha20poly1305.NewX(f.key)
	if err != nil {
		return err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	raw := aead.Seal(nonce, nonce, plaintext, nil)

	tempFile := f.path + ".tmp"
	if err := os.WriteFile(tempFile, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempFile, f.path); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
