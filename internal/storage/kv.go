// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// =============================================================================
// KEYS
// =============================================================================

const (
	// HistoriesKey holds the serialized conversation history.
	HistoriesKey = "histories"

	// ModelNameKey holds the last selected model name.
	ModelNameKey = "model_name"
)

// =============================================================================
// KV INTERFACE
// =============================================================================

// KV is a string key/value store. Implementations persist every Set before
// returning, so a crash never loses an acknowledged write.
type KV interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool, error)

	// Set stores value under key.
	Set(key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// Keys returns all keys in sorted order.
	Keys() ([]string, error)

	// Close releases the store.
	Close() error
}

// =============================================================================
// BACKENDS
// =============================================================================

// Backend names a KV implementation.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory"
)

// ValidBackends lists the accepted backend names.
var ValidBackends = []Backend{BackendFile, BackendSQLite, BackendMemory}

// ParseBackend converts a config value to a Backend.
func ParseBackend(name string) (Backend, error) {
	b := Backend(strings.ToLower(strings.TrimSpace(name)))
	for _, valid := range ValidBackends {
		if b == valid {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBackend, name)
}

// Open opens the backend rooted at dataDir.
func Open(backend Backend, dataDir string) (KV, error) {
	switch backend {
	case BackendFile:
		return OpenFileKV(filepath.Join(dataDir, "localstorage.json"))
	case BackendSQLite:
		return OpenSQLiteKV(filepath.Join(dataDir, "localstorage.db"))
	case BackendMemory:
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, string(backend))
	}
}

// =============================================================================
// MEMORY BACKEND
// =============================================================================

// MemoryKV keeps values in a map. It is safe for concurrent use.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

// Get implements KV.
func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set implements KV.
func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Delete implements KV.
func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Keys implements KV.
func (m *MemoryKV) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(m.values), nil
}

// Close implements KV.
func (m *MemoryKV) Close() error {
	return nil
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is returned when a conversation doesn't exist.
	// Use errors.Is(err, ErrNotFound) to check for this error.
	ErrNotFound = errors.New("conversation not found")

	// ErrUnknownBackend is returned for an unsupported storage backend name.
	ErrUnknownBackend = errors.New("unknown storage backend")

	// ErrClosed is returned when a closed store is used.
	ErrClosed = errors.New("storage closed")
)
