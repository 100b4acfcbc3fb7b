/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Tejus Pratap <tejzpr@gmail.com>
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

// Package callstate tracks the lifecycle of calls known to the client.
// The coordinator uses it for login admission control: a login attempt is
// suppressed while any call is active.
package callstate

import (
	"context"
	"fmt"
	"sync"

	"github.com/looplab/fsm"
)

// State is the lifecycle state of a single call
type State string

const (
	StateRinging State = "ringing"
	StateActive  State = "active"
	StateEnded   State = "ended"
)

// Transition events
const (
	eventAnswer = "answer"
	eventReject = "reject"
	eventHangup = "hangup"
	eventCancel = "cancel"
)

// Call is a single call's state machine. Calls start ringing; answer moves
// them to active; reject, hangup and cancel end them. Illegal transitions
// (answering an ended call, hanging up a ringing one) are errors.
type Call struct {
	ID     string
	Caller string

	machine *fsm.FSM
}

// newCall creates a call in the ringing state
func newCall(id, caller string) *Call {
	return &Call{
		ID:     id,
		Caller: caller,
		machine: fsm.NewFSM(
			string(StateRinging),
			fsm.Events{
				{Name: eventAnswer, Src: []string{string(StateRinging)}, Dst: string(StateActive)},
				{Name: eventReject, Src: []string{string(StateRinging)}, Dst: string(StateEnded)},
				{Name: eventCancel, Src: []string{string(StateRinging)}, Dst: string(StateEnded)},
				// The platform can hang up a call it considers answered
				// before the local answer round-trip finished, so hangup
				// is legal from ringing as well.
				{Name: eventHangup, Src: []string{string(StateRinging), string(StateActive)}, Dst: string(StateEnded)},
			},
			fsm.Callbacks{},
		),
	}
}

// State returns the call's current state
func (c *Call) State() State {
	return State(c.machine.Current())
}

// Tracker owns the set of calls the client knows about and answers the
// "is any call active" question for login admission control.
type Tracker struct {
	mu    sync.Mutex
	calls map[string]*Call
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{calls: make(map[string]*Call)}
}

// Ringing records a new incoming call. Re-delivery of a known call ID is
// a no-op so a push-decoded invite and its stream twin do not double up.
func (t *Tracker) Ringing(callID, caller string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.calls[callID]; ok {
		return
	}
	t.calls[callID] = newCall(callID, caller)
}

// Answer marks the call active
func (t *Tracker) Answer(callID string) error {
	return t.fire(callID, eventAnswer)
}

// Reject ends a ringing call
func (t *Tracker) Reject(callID string) error {
	return t.fire(callID, eventReject)
}

// Hangup ends an active call
func (t *Tracker) Hangup(callID string) error {
	return t.fire(callID, eventHangup)
}

// Cancel ends a ringing call whose invite was withdrawn
func (t *Tracker) Cancel(callID string) error {
	return t.fire(callID, eventCancel)
}

// fire applies a transition event to a known call
func (t *Tracker) fire(callID, event string) error {
	t.mu.Lock()
	call, ok := t.calls[callID]
	t.mu.Unlock()

	if !ok {
		return fmt.Errorf("unknown call %q", callID)
	}
	if err := call.machine.Event(context.Background(), event); err != nil {
		return fmt.Errorf("call %q: %w", callID, err)
	}

	// Ended calls no longer need tracking
	if call.State() == StateEnded {
		t.mu.Lock()
		delete(t.calls, callID)
		t.mu.Unlock()
	}
	return nil
}

// HasActive reports whether any call is currently active
func (t *Tracker) HasActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, call := range t.calls {
		if call.State() == StateActive {
			return true
		}
	}
	return false
}

// Get returns the tracked call with the given ID, if any
func (t *Tracker) Get(callID string) (*Call, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	call, ok := t.calls[callID]
	return call, ok
}

// Len returns the number of tracked (non-ended) calls
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}
