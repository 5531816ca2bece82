package storage

import (
	"errors"
	"sync"
)

// Memory is a thread-safe in-memory implementation of the KV interface
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates a new in-memory key-value store
func NewMemory() *Memory {
	return &Memory{
		values: make(map[string]string),
	}
}

// Get retrieves a value by key
func (m *Memory) Get(key string) (string, error) {
	if key == "" {
		return "", errors.New("key cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	value, exists := m.values[key]
	if !exists {
		return "", ErrNotFound
	}
	return value, nil
}

// Set stores or updates a value
func (m *Memory) Set(key, value string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil
}

// Delete removes a value
func (m *Memory) Delete(key string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}
