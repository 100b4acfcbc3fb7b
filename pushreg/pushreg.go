/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Tejus Pratap <tejzpr@gmail.com>
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

// Package pushreg owns the push-token lifecycle: registering tokens with
// the platform and keeping the persisted registration in sync with what
// the platform actually confirmed.
package pushreg

import (
	"context"
	"fmt"
	"log"

	"github.com/tejzpr/voicepush-go-sdk/tokenstore"
	"github.com/tejzpr/voicepush-go-sdk/voicesdk"
)

// TokenRegistry is the slice of the signaling service the registrar needs
type TokenRegistry interface {
	RegisterDeviceToken(ctx context.Context, token []byte) (string, error)
	UnregisterDeviceToken(ctx context.Context, deviceID string) error
}

// Config holds the configuration for the registrar
type Config struct {
	// Logger for registrar operations. If nil, the standard library's
	// default logger is used.
	Logger voicesdk.Logger
}

// Registrar registers push tokens once and invalidates stale ones. Tokens
// only need to be registered once, so the confirmed registration is stored
// and compared against each incoming token.
type Registrar struct {
	registry TokenRegistry
	store    tokenstore.Store
	logger   voicesdk.Logger
}

// New creates a registrar over the given registry and store
func New(registry TokenRegistry, store tokenstore.Store, config *Config) *Registrar {
	logger := voicesdk.Logger(nil)
	if config != nil {
		logger = config.Logger
	}
	if logger == nil {
		logger = log.Default()
	}

	return &Registrar{
		registry: registry,
		store:    store,
		logger:   logger,
	}
}

// RegisterIfNeeded registers token with the platform unless the identical
// token is already registered. A differing stored token is invalidated
// remotely before the new one is registered. The registration is persisted
// only after the platform confirms it; on failure nothing is persisted and
// the error is reported to the caller.
func (r *Registrar) RegisterIfNeeded(ctx context.Context, token []byte) error {
	if len(token) == 0 {
		return fmt.Errorf("push token is empty")
	}

	stored, err := r.store.Load()
	if err != nil {
		return fmt.Errorf("load stored registration: %w", err)
	}

	if stored.Matches(token) {
		// Already registered, nothing to do
		return nil
	}

	if stored != nil {
		if err := r.unregister(ctx, stored); err != nil {
			return err
		}
	}

	deviceID, err := r.registry.RegisterDeviceToken(ctx, token)
	if err != nil {
		r.logger.Printf("pushreg: token registration failed: %v", err)
		return err
	}

	reg := &tokenstore.Registration{Token: token, DeviceID: deviceID}
	if err := r.store.Save(reg); err != nil {
		return fmt.Errorf("persist registration: %w", err)
	}

	r.logger.Printf("pushreg: token registered as device %s", deviceID)
	return nil
}

// Invalidate removes the current registration, remotely and locally. When
// nothing is registered it succeeds immediately.
func (r *Registrar) Invalidate(ctx context.Context) error {
	stored, err := r.store.Load()
	if err != nil {
		return fmt.Errorf("load stored registration: %w", err)
	}
	if stored == nil {
		return nil
	}
	return r.unregister(ctx, stored)
}

// unregister removes a confirmed registration. The store is cleared only
// after the platform confirms the unregistration.
func (r *Registrar) unregister(ctx context.Context, reg *tokenstore.Registration) error {
	if err := r.registry.UnregisterDeviceToken(ctx, reg.DeviceID); err != nil {
		r.logger.Printf("pushreg: token unregistration failed for device %s: %v", reg.DeviceID, err)
		return err
	}
	if err := r.store.Clear(); err != nil {
		return fmt.Errorf("clear registration: %w", err)
	}
	r.logger.Printf("pushreg: device %s unregistered", reg.DeviceID)
	return nil
}

// Registered returns the currently persisted registration, if any
func (r *Registrar) Registered() (*tokenstore.Registration, error) {
	return r.store.Load()
}
