/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Tejus Pratap <tejzpr@gmail.com>
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

package pushreg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/tejzpr/voicepush-go-sdk/tokenstore"
)

// fakeRegistry records register/unregister calls in arrival order
type fakeRegistry struct {
	mu            sync.Mutex
	calls         []string
	registerErr   error
	unregisterErr error
	nextDeviceID  string
}

func (f *fakeRegistry) RegisterDeviceToken(ctx context.Context, token []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "register:"+string(token))
	if f.registerErr != nil {
		return "", f.registerErr
	}
	if f.nextDeviceID == "" {
		f.nextDeviceID = "device-1"
	}
	return f.nextDeviceID, nil
}

func (f *fakeRegistry) UnregisterDeviceToken(ctx context.Context, deviceID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "unregister:"+deviceID)
	return f.unregisterErr
}

func (f *fakeRegistry) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func TestRegisterIfNeeded(t *testing.T) {
	ctx := context.Background()

	t.Run("registers and persists a new token", func(t *testing.T) {
		registry := &fakeRegistry{nextDeviceID: "device-7"}
		store := tokenstore.NewMemoryStore()
		reg := New(registry, store, nil)

		if err := reg.RegisterIfNeeded(ctx, []byte("t1")); err != nil {
			t.Fatalf("RegisterIfNeeded failed: %v", err)
		}

		stored, err := store.Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if stored == nil {
			t.Fatal("expected a persisted registration")
		}
		if !bytes.Equal(stored.Token, []byte("t1")) || stored.DeviceID != "device-7" {
			t.Errorf("unexpected registration: %+v", stored)
		}
	})

	t.Run("same token is a no-op", func(t *testing.T) {
		registry := &fakeRegistry{}
		store := tokenstore.NewMemoryStore()
		reg := New(registry, store, nil)

		if err := reg.RegisterIfNeeded(ctx, []byte("t1")); err != nil {
			t.Fatalf("first RegisterIfNeeded failed: %v", err)
		}
		if err := reg.RegisterIfNeeded(ctx, []byte("t1")); err != nil {
			t.Fatalf("second RegisterIfNeeded failed: %v", err)
		}

		calls := registry.callLog()
		if len(calls) != 1 {
			t.Errorf("expected exactly one platform call, got %v", calls)
		}
	})

	t.Run("changed token invalidates the old one first", func(t *testing.T) {
		registry := &fakeRegistry{nextDeviceID: "device-1"}
		store := tokenstore.NewMemoryStore()
		reg := New(registry, store, nil)

		if err := reg.RegisterIfNeeded(ctx, []byte("t1")); err != nil {
			t.Fatalf("register t1 failed: %v", err)
		}
		if err := reg.RegisterIfNeeded(ctx, []byte("t2")); err != nil {
			t.Fatalf("register t2 failed: %v", err)
		}

		want := []string{"register:t1", "unregister:device-1", "register:t2"}
		got := registry.callLog()
		if len(got) != len(want) {
			t.Fatalf("call log mismatch: got %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("call %d: got %q, want %q", i, got[i], want[i])
			}
		}

		stored, _ := store.Load()
		if stored == nil || !bytes.Equal(stored.Token, []byte("t2")) {
			t.Errorf("expected t2 persisted, got %+v", stored)
		}
	})

	t.Run("registration failure persists nothing", func(t *testing.T) {
		registry := &fakeRegistry{registerErr: errors.New("platform down")}
		store := tokenstore.NewMemoryStore()
		reg := New(registry, store, nil)

		if err := reg.RegisterIfNeeded(ctx, []byte("t1")); err == nil {
			t.Fatal("expected an error")
		}

		stored, _ := store.Load()
		if stored != nil {
			t.Errorf("expected no persisted registration, got %+v", stored)
		}
	})

	t.Run("empty token is rejected", func(t *testing.T) {
		reg := New(&fakeRegistry{}, tokenstore.NewMemoryStore(), nil)
		if err := reg.RegisterIfNeeded(ctx, nil); err == nil {
			t.Fatal("expected an error for an empty token")
		}
	})
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing registered is a no-op", func(t *testing.T) {
		registry := &fakeRegistry{}
		reg := New(registry, tokenstore.NewMemoryStore(), nil)

		if err := reg.Invalidate(ctx); err != nil {
			t.Fatalf("Invalidate failed: %v", err)
		}
		if calls := registry.callLog(); len(calls) != 0 {
			t.Errorf("expected no platform calls, got %v", calls)
		}
	})

	t.Run("unregisters and clears", func(t *testing.T) {
		registry := &fakeRegistry{nextDeviceID: "device-3"}
		store := tokenstore.NewMemoryStore()
		reg := New(registry, store, nil)

		if err := reg.RegisterIfNeeded(ctx, []byte("t1")); err != nil {
			t.Fatalf("register failed: %v", err)
		}
		if err := reg.Invalidate(ctx); err != nil {
			t.Fatalf("Invalidate failed: %v", err)
		}

		stored, _ := store.Load()
		if stored != nil {
			t.Errorf("expected cleared store, got %+v", stored)
		}
		calls := registry.callLog()
		if len(calls) != 2 || calls[1] != "unregister:device-3" {
			t.Errorf("unexpected call log: %v", calls)
		}
	})

	t.Run("unregistration failure keeps the registration", func(t *testing.T) {
		registry := &fakeRegistry{}
		store := tokenstore.NewMemoryStore()
		reg := New(registry, store, nil)

		if err := reg.RegisterIfNeeded(ctx, []byte("t1")); err != nil {
			t.Fatalf("register failed: %v", err)
		}
		registry.unregisterErr = fmt.Errorf("platform down")

		if err := reg.Invalidate(ctx); err == nil {
			t.Fatal("expected an error")
		}
		stored, _ := store.Load()
		if stored == nil {
			t.Error("expected the registration to survive the failed unregistration")
		}
	})
}
