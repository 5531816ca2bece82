// Package storage provides the key-value persistence backends for the
// session lifecycle. The layout of keys is owned by the session package;
// backends only move opaque string values.
package storage

import "errors"

// ErrNotFound is returned by Get when no value exists for a key.
var ErrNotFound = errors.New("key not found")

// KV is a minimal synchronous key-value store. Writes are durable (for
// backends that persist) before the call returns, so readers never observe a
// torn write within a single process.
type KV interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}
