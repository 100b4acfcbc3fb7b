/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Tejus Pratap <tejzpr@gmail.com>
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

package coordinator

import "testing"

func TestActionGate(t *testing.T) {
	t.Run("open gate runs immediately", func(t *testing.T) {
		var g actionGate
		if !g.submit(func() {}) {
			t.Error("submit on an open gate should run the action")
		}
	})

	t.Run("shut gate defers", func(t *testing.T) {
		var g actionGate
		g.shut()
		ran := 0
		if g.submit(func() { ran++ }) {
			t.Error("submit on a shut gate should defer")
		}
		if action := g.release(); action != nil {
			action()
		}
		if ran != 1 {
			t.Errorf("deferred action ran %d times, want 1", ran)
		}
	})

	t.Run("second submission replaces the first", func(t *testing.T) {
		var g actionGate
		g.shut()
		var got string
		g.submit(func() { got = "first" })
		g.submit(func() { got = "second" })
		if action := g.release(); action != nil {
			action()
		}
		if got != "second" {
			t.Errorf("got %q, want second", got)
		}
	})

	t.Run("release with nothing stored returns nil", func(t *testing.T) {
		var g actionGate
		g.shut()
		if g.release() != nil {
			t.Error("expected nil from an empty gate")
		}
		if !g.submit(func() {}) {
			t.Error("gate should be open after release")
		}
	})
}

func TestEventEmitter(t *testing.T) {
	t.Run("emits to every registered handler", func(t *testing.T) {
		e := NewEventEmitter()
		got := 0
		e.On(EventStatusChanged, func(data interface{}) { got++ })
		e.On(EventStatusChanged, func(data interface{}) { got++ })
		e.Emit(EventStatusChanged, "Connected")
		if got != 2 {
			t.Errorf("handlers fired %d times, want 2", got)
		}
	})

	t.Run("off removes handlers", func(t *testing.T) {
		e := NewEventEmitter()
		fired := false
		e.On(EventCallEnded, func(data interface{}) { fired = true })
		e.Off(EventCallEnded)
		e.Emit(EventCallEnded, "c1")
		if fired {
			t.Error("handler fired after Off")
		}
	})

	t.Run("nil handler is ignored", func(t *testing.T) {
		e := NewEventEmitter()
		e.On(EventStatusChanged, nil)
		e.Emit(EventStatusChanged, "Connected")
	})
}
