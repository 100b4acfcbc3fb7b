/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Tejus Pratap <tejzpr@gmail.com>
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

// Package tokenstore persists the push-token registration across process
// restarts. At most one registration exists at a time; callers persist it
// only after the platform confirmed the remote registration, so local and
// remote state cannot diverge on failure.
package tokenstore

import (
	"bytes"
	"sync"
)

// Registration is the persisted push token and the device ID the platform
// assigned when the token was registered.
type Registration struct {
	Token    []byte
	DeviceID string
}

// Matches reports whether the stored token equals the given token
func (r *Registration) Matches(token []byte) bool {
	return r != nil && bytes.Equal(r.Token, token)
}

// Store holds at most one push-token registration. Load returns (nil, nil)
// when nothing is stored.
type Store interface {
	Load() (*Registration, error)
	Save(reg *Registration) error
	Clear() error
}

// MemoryStore is an in-memory Store for tests and hosts that do not need
// the registration to survive a restart.
type MemoryStore struct {
	mu  sync.Mutex
	reg *Registration
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored registration, or (nil, nil) when empty
func (s *MemoryStore) Load() (*Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reg == nil {
		return nil, nil
	}
	cp := &Registration{
		Token:    append([]byte(nil), s.reg.Token...),
		DeviceID: s.reg.DeviceID,
	}
	return cp, nil
}

// Save replaces the stored registration
func (s *MemoryStore) Save(reg *Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reg = &Registration{
		Token:    append([]byte(nil), reg.Token...),
		DeviceID: reg.DeviceID,
	}
	return nil
}

// Clear removes the stored registration
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reg = nil
	return nil
}
