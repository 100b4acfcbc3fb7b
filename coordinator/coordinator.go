/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Tejus Pratap <tejzpr@gmail.com>
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

// Package coordinator implements the call-session lifecycle coordinator:
// login sequencing around push-triggered authentication, push-token
// registration decisions, call answer/reject dispatch, and status
// notification to observers. One Coordinator is constructed at startup with
// its collaborators and passed to whoever needs it; there is no package
// level instance.
package coordinator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/tejzpr/voicepush-go-sdk/callstate"
	"github.com/tejzpr/voicepush-go-sdk/callui"
	"github.com/tejzpr/voicepush-go-sdk/credentials"
	"github.com/tejzpr/voicepush-go-sdk/pushreg"
	"github.com/tejzpr/voicepush-go-sdk/signaling"
	"github.com/tejzpr/voicepush-go-sdk/stats"
	"github.com/tejzpr/voicepush-go-sdk/voicesdk"
)

// StatusConnected is the status emitted after a successful login
const StatusConnected = "Connected"

// Config holds the configuration for the coordinator
type Config struct {
	// Logger for coordinator operations. If nil, the standard library's
	// default logger is used.
	Logger voicesdk.Logger

	// Stats receives lifecycle counters. A nil Stats records nothing.
	Stats *stats.Stats
}

// DefaultConfig returns the default coordinator configuration
func DefaultConfig() *Config {
	return &Config{}
}

// Coordinator orchestrates the session lifecycle. All coordinator-owned
// state (session, call tracker, pending action gate, last-seen push token)
// is guarded by one mutex; callbacks may arrive concurrently from the push
// provider, the signaling event stream, and the call surface.
type Coordinator struct {
	svc       signaling.Service
	creds     credentials.Provider
	registrar *pushreg.Registrar
	ui        callui.Provider
	metrics   *stats.Stats
	logger    voicesdk.Logger

	// Emitter publishes status and call-ended events to observers
	Emitter *EventEmitter

	mu          sync.Mutex
	calls       *callstate.Tracker
	sessionID   string
	latestToken []byte
	gate        actionGate
	pushLogin   bool
}

// New creates a coordinator over its collaborators and registers it as the
// signaling service's event handler. A nil ui falls back to
// callui.NopProvider.
func New(svc signaling.Service, creds credentials.Provider, registrar *pushreg.Registrar, ui callui.Provider, config *Config) *Coordinator {
	if config == nil {
		config = DefaultConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}
	if ui == nil {
		ui = callui.NopProvider{}
	}

	c := &Coordinator{
		svc:       svc,
		creds:     creds,
		registrar: registrar,
		ui:        ui,
		metrics:   config.Stats,
		logger:    logger,
		Emitter:   NewEventEmitter(),
		calls:     callstate.NewTracker(),
	}
	svc.SetHandler(c)
	return c
}

// OnStatus registers an observer for connection status changes. The
// observer receives "Connected" on login success, the error text on login
// failure, and the classified reason text on session errors.
func (c *Coordinator) OnStatus(fn func(status string)) {
	c.Emitter.On(EventStatusChanged, func(data interface{}) {
		if status, ok := data.(string); ok {
			fn(status)
		}
	})
}

// Login authenticates with the signaling service: fetches a credential,
// exchanges it for a session, and emits a status event with the outcome.
// One attempt per call, no retry. While any call is active the login is
// suppressed entirely. A push-triggered login closes the action gate first
// and flushes it once the attempt completes, success or failure, so an
// answer or reject issued mid-login runs afterwards rather than racing it.
func (c *Coordinator) Login(ctx context.Context, pushTriggered bool) {
	if !c.beginLogin(pushTriggered) {
		return
	}
	c.finishLogin(ctx, pushTriggered, c.establishSession(ctx))
}

// beginLogin applies admission control and, for push logins, shuts the
// gate. Returns false when the attempt should not proceed.
func (c *Coordinator) beginLogin(pushTriggered bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls.HasActive() {
		return false
	}
	if pushTriggered {
		if c.pushLogin {
			// A push login is already in flight; the gate is shut.
			return false
		}
		c.pushLogin = true
		c.gate.shut()
	}
	return true
}

func (c *Coordinator) establishSession(ctx context.Context) error {
	credential, err := c.creds.Credential(ctx)
	if err != nil {
		return fmt.Errorf("fetch credential: %w", err)
	}

	// Skip the exchange when the credential is already known to be
	// expired; the platform would reject it anyway. Opaque credentials
	// pass through untouched.
	if info := credentials.Inspect(credential); info.Expired(time.Now()) {
		return fmt.Errorf("credential expired at %s", info.Expiry.Format(time.RFC3339))
	}

	sessionID, err := c.svc.CreateSession(ctx, credential)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.sessionID = sessionID
	c.mu.Unlock()
	return nil
}

func (c *Coordinator) finishLogin(ctx context.Context, pushTriggered bool, err error) {
	if err != nil {
		c.metrics.Login("failure")
		c.logger.Printf("coordinator: login failed: %v", err)
		c.Emitter.Emit(EventStatusChanged, err.Error())
	} else {
		c.metrics.Login("success")
		c.Emitter.Emit(EventStatusChanged, StatusConnected)
	}

	if pushTriggered {
		c.flushPending()
		return
	}

	if err == nil {
		c.mu.Lock()
		token := append([]byte(nil), c.latestToken...)
		c.mu.Unlock()
		if len(token) > 0 {
			c.registerToken(ctx, token)
		}
	}
}

// flushPending reopens the gate and runs the most recently deferred action,
// if any. At most one action runs; a no-op when nothing was deferred.
func (c *Coordinator) flushPending() {
	c.mu.Lock()
	action := c.gate.release()
	c.pushLogin = false
	c.mu.Unlock()

	if action != nil {
		c.metrics.DeferredFlush()
		action()
	}
}

// Answer accepts the call with the given ID, marking it active. When a
// push-triggered login is in flight the acceptance is deferred until the
// login completes; only the most recently deferred action survives. done is
// invoked with the outcome of the remote answer and may be nil.
func (c *Coordinator) Answer(ctx context.Context, callID string, done func(error)) {
	// The state transition belongs to the action, not the submission, so
	// a deferred answer that never runs leaves no trace and a later
	// reject for the same call can supersede it.
	action := func() {
		c.mu.Lock()
		c.calls.Ringing(callID, "")
		terr := c.calls.Answer(callID)
		c.mu.Unlock()
		if terr != nil {
			if done != nil {
				done(terr)
			}
			return
		}
		err := c.svc.Answer(ctx, callID)
		if err != nil {
			c.logger.Printf("coordinator: answer %s failed: %v", callID, err)
		}
		if done != nil {
			done(err)
		}
	}

	c.mu.Lock()
	runNow := c.gate.submit(action)
	c.mu.Unlock()

	if runNow {
		action()
	} else {
		c.logger.Printf("coordinator: answer %s deferred until login completes", callID)
	}
}

// Reject declines the call with the given ID, clearing any active state for
// it. Deferral behaves as in Answer.
func (c *Coordinator) Reject(ctx context.Context, callID string, done func(error)) {
	action := func() {
		c.mu.Lock()
		c.calls.Ringing(callID, "")
		terr := c.calls.Reject(callID)
		c.mu.Unlock()
		if terr != nil {
			if done != nil {
				done(terr)
			}
			return
		}
		err := c.svc.Reject(ctx, callID)
		if err != nil {
			c.logger.Printf("coordinator: reject %s failed: %v", callID, err)
		}
		if done != nil {
			done(err)
		}
	}

	c.mu.Lock()
	runNow := c.gate.submit(action)
	c.mu.Unlock()

	if runNow {
		action()
	} else {
		c.logger.Printf("coordinator: reject %s deferred until login completes", callID)
	}
}

// ProcessIncomingPush handles a raw push payload. Payloads that do not
// carry the platform envelope are ignored: no login, no status event, empty
// return. A recognized payload starts a push-triggered login in the
// background and decodes the payload into a call invite ID; the invite
// itself is delivered through the signaling handler.
func (c *Coordinator) ProcessIncomingPush(ctx context.Context, payload map[string]interface{}) string {
	if signaling.PushType(payload) != signaling.PayloadIncomingCall {
		c.metrics.Push("unknown")
		return ""
	}
	c.metrics.Push("call_invite")

	if c.beginLogin(true) {
		// The session exchange must run inside the goroutine; evaluating
		// it as a go-statement argument would block this callback on the
		// network round-trip.
		go func() {
			c.finishLogin(ctx, true, c.establishSession(ctx))
		}()
	}

	callID, err := c.svc.ProcessPushPayload(payload)
	if err != nil {
		c.logger.Printf("coordinator: push payload decode failed: %v", err)
		return ""
	}
	return callID
}

// OnPushTokenUpdated remembers the platform-issued push token. If a session
// is already established the token is registered right away; otherwise
// registration happens as the follow-up of the next normal login.
func (c *Coordinator) OnPushTokenUpdated(ctx context.Context, token []byte) {
	c.mu.Lock()
	c.latestToken = append([]byte(nil), token...)
	hasSession := c.sessionID != ""
	c.mu.Unlock()

	if hasSession {
		c.registerToken(ctx, token)
	}
}

// OnPushTokenInvalidated drops the remembered token and removes the remote
// registration unconditionally.
func (c *Coordinator) OnPushTokenInvalidated(ctx context.Context) {
	c.mu.Lock()
	c.latestToken = nil
	c.mu.Unlock()

	if err := c.registrar.Invalidate(ctx); err != nil {
		c.metrics.Registration("invalidate_failure")
		c.logger.Printf("coordinator: push token invalidation failed: %v", err)
		return
	}
	c.metrics.Registration("invalidated")
}

func (c *Coordinator) registerToken(ctx context.Context, token []byte) {
	if err := c.registrar.RegisterIfNeeded(ctx, token); err != nil {
		c.metrics.Registration("failure")
		c.logger.Printf("coordinator: push token registration failed: %v", err)
		return
	}
	c.metrics.Registration("success")
}

// Logout tears down the session
func (c *Coordinator) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.sessionID = ""
	c.mu.Unlock()
	return c.svc.DestroySession(ctx)
}

// SessionID returns the current session identifier, empty when logged out
func (c *Coordinator) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// HasActiveCall reports whether any call is currently active
func (c *Coordinator) HasActiveCall() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls.HasActive()
}

// ---- signaling.Handler ----

// OnInviteReceived surfaces the invite on the call UI. If the surface
// cannot present it the invite is declined remotely.
func (c *Coordinator) OnInviteReceived(callID, caller string, channel signaling.ChannelType) {
	c.mu.Lock()
	c.calls.Ringing(callID, caller)
	c.mu.Unlock()

	if err := c.ui.ReportIncomingCall(callID, caller, channel); err != nil {
		c.logger.Printf("coordinator: call surface rejected %s: %v", callID, err)
		c.Reject(context.Background(), callID, nil)
	}
}

// OnHangup clears the call's active state and ends its UI session
func (c *Coordinator) OnHangup(callID string, quality signaling.RTCQuality, reason signaling.HangupReason) {
	c.mu.Lock()
	if err := c.calls.Hangup(callID); err != nil {
		c.logger.Printf("coordinator: hangup %s: %v", callID, err)
	}
	c.mu.Unlock()

	c.logger.Printf("coordinator: call %s ended (%s, mos=%.1f)", callID, reason, quality.MOS)
	c.ui.EndCall(callID)
	c.Emitter.Emit(EventCallEnded, callID)
}

// OnInviteCancelled reports the withdrawn invite as a failed call
func (c *Coordinator) OnInviteCancelled(callID string, reason signaling.CancelReason) {
	c.mu.Lock()
	if err := c.calls.Cancel(callID); err != nil {
		c.logger.Printf("coordinator: cancel %s: %v", callID, err)
	}
	c.mu.Unlock()

	c.ui.ReportFailedCall(callID, string(reason))
	c.Emitter.Emit(EventCallEnded, callID)
}

// OnSessionError classifies the reason and notifies status observers. No
// local state is torn down and no reconnect is attempted; recovery is the
// caller's to initiate via Login.
func (c *Coordinator) OnSessionError(reason signaling.SessionErrorReason) {
	c.metrics.SessionError(string(reason))
	c.logger.Printf("coordinator: session error: %s", reason)
	c.Emitter.Emit(EventStatusChanged, reason.StatusText())
}
