package version

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownVersion is wrapped by lookup failures for version keys that have
// no registered rule set. It is distinct from malformed chunk data errors.
var ErrUnknownVersion = errors.New("unknown version")

// UnknownVersionError reports which key failed to resolve.
type UnknownVersionError struct {
	Key Key
}

// Error implements error.
func (e *UnknownVersionError) Error() string {
	return fmt.Sprintf("unknown version %s", e.Key)
}

// Unwrap makes the error match ErrUnknownVersion.
func (e *UnknownVersionError) Unwrap() error { return ErrUnknownVersion }

// Manager is a registry of versions keyed by (platform, version number).
// Registration happens up front; lookups are safe from concurrent
// translation calls.
type Manager struct {
	mu       sync.RWMutex
	versions map[Key]*Version
}

// NewManager creates an empty version manager.
func NewManager() *Manager {
	return &Manager{versions: make(map[Key]*Version)}
}

// Register adds or replaces the rule set for a version key.
func (m *Manager) Register(key Key, v *Version) {
	m.mu.Lock()
	m.versions[key] = v
	m.mu.Unlock()
}

// Get resolves the rule set for a version key. Lookup failure is fatal to a
// translation call and surfaces as an UnknownVersionError.
func (m *Manager) Get(key Key) (*Version, error) {
	m.mu.RLock()
	v, ok := m.versions[key]
	m.mu.RUnlock()
	if !ok {
		return nil, &UnknownVersionError{Key: key}
	}
	return v, nil
}
