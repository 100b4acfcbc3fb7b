/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Tejus Pratap <tejzpr@gmail.com>
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

package voicesdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	t.Run("with default config", func(t *testing.T) {
		client, err := NewClient("test-credential", nil)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if client.Config.MaxRetries != 3 {
			t.Errorf("Expected default MaxRetries 3, got %d", client.Config.MaxRetries)
		}
		if client.GetCredential() != "test-credential" {
			t.Errorf("Expected credential 'test-credential', got %q", client.GetCredential())
		}
	})

	t.Run("empty credential is allowed", func(t *testing.T) {
		// The credential provider runs after construction, so the core
		// client starts without one.
		client, err := NewClient("", nil)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if client.GetCredential() != "" {
			t.Errorf("Expected empty credential, got %q", client.GetCredential())
		}
	})

	t.Run("with custom config", func(t *testing.T) {
		cfg := &Config{
			BaseURL:        "https://example.com/v1",
			Timeout:        5 * time.Second,
			DefaultHeaders: map[string]string{"X-Test": "yes"},
			MaxRetries:     1,
		}
		client, err := NewClient("tok", cfg)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if client.BaseURL.String() != "https://example.com/v1" {
			t.Errorf("Expected BaseURL 'https://example.com/v1', got %q", client.BaseURL.String())
		}
	})

	t.Run("invalid base URL", func(t *testing.T) {
		cfg := &Config{BaseURL: "://bad"}
		if _, err := NewClient("tok", cfg); err == nil {
			t.Error("Expected error for invalid base URL")
		}
	})
}

func TestSetCredential(t *testing.T) {
	client, _ := NewClient("old", nil)
	client.SetCredential("new")
	if client.GetCredential() != "new" {
		t.Errorf("Expected credential 'new', got %q", client.GetCredential())
	}
}

func TestCredentialConcurrentAccess(t *testing.T) {
	// A login goroutine replaces the credential while other plugins issue
	// requests through the same core client. Run with -race.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, err := NewClient("initial", &Config{BaseURL: server.URL, MaxRetries: 0})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			client.SetCredential("rotated")
		}
	}()

	for i := 0; i < 100; i++ {
		resp, err := client.RequestWithContext(context.Background(), http.MethodGet, "ping", nil, nil)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		resp.Body.Close()
	}
	<-done

	if client.GetCredential() != "rotated" {
		t.Errorf("Expected credential 'rotated', got %q", client.GetCredential())
	}
}

func TestRequest(t *testing.T) {
	t.Run("sends auth and default headers", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer test-credential" {
				t.Errorf("Expected 'Bearer test-credential', got %q", got)
			}
			if got := r.Header.Get("X-Custom"); got != "value" {
				t.Errorf("Expected X-Custom 'value', got %q", got)
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"ok": "true"})
		}))
		defer server.Close()

		cfg := DefaultConfig()
		cfg.BaseURL = server.URL
		cfg.DefaultHeaders["X-Custom"] = "value"
		client, _ := NewClient("test-credential", cfg)

		resp, err := client.Request(http.MethodGet, "ping", nil, nil)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		resp.Body.Close()
	})

	t.Run("retries transient errors", func(t *testing.T) {
		attempts := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts++
			if attempts < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		cfg := DefaultConfig()
		cfg.BaseURL = server.URL
		cfg.MaxRetries = 3
		cfg.RetryBaseDelay = 1 * time.Millisecond
		client, _ := NewClient("tok", cfg)

		resp, err := client.Request(http.MethodGet, "ping", nil, nil)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("Expected 200, got %d", resp.StatusCode)
		}
		if attempts != 3 {
			t.Errorf("Expected 3 attempts, got %d", attempts)
		}
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		attempts := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts++
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		cfg := DefaultConfig()
		cfg.BaseURL = server.URL
		cfg.RetryBaseDelay = 1 * time.Millisecond
		client, _ := NewClient("tok", cfg)

		resp, err := client.Request(http.MethodGet, "ping", nil, nil)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		resp.Body.Close()
		if attempts != 1 {
			t.Errorf("Expected 1 attempt, got %d", attempts)
		}
	})
}

func TestParseResponse(t *testing.T) {
	t.Run("parses success body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"sessionId": "session-123"})
		}))
		defer server.Close()

		resp, err := http.Get(server.URL)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		var out struct {
			SessionID string `json:"sessionId"`
		}
		if err := ParseResponse(resp, &out); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if out.SessionID != "session-123" {
			t.Errorf("Expected 'session-123', got %q", out.SessionID)
		}
	})

	t.Run("nil target discards body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("{}"))
		}))
		defer server.Close()

		resp, _ := http.Get(server.URL)
		if err := ParseResponse(resp, nil); err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	})

	t.Run("error status becomes APIError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"message": "no such call"})
		}))
		defer server.Close()

		resp, _ := http.Get(server.URL)
		err := ParseResponse(resp, &struct{}{})
		if err == nil {
			t.Fatal("Expected error for 404 response")
		}
		if !IsNotFound(err) {
			t.Errorf("Expected NotFoundError, got %T", err)
		}
	})
}

func TestCheckResponse(t *testing.T) {
	t.Run("success is nil", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		resp, _ := http.Get(server.URL)
		if err := CheckResponse(resp); err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	})

	t.Run("error status is surfaced", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
		}))
		defer server.Close()

		resp, _ := http.Get(server.URL)
		if err := CheckResponse(resp); !IsConflict(err) {
			t.Errorf("Expected ConflictError, got %v", err)
		}
	})
}
