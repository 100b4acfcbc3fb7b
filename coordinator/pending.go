/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Tejus Pratap <tejzpr@gmail.com>
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

package coordinator

// actionGate defers at most one call action while a push-triggered login is
// in flight. While the gate is shut, a submitted action replaces any
// previously stored one; releasing the gate hands back the latest action
// for execution. Not safe for concurrent use on its own; the coordinator's
// mutex guards it.
type actionGate struct {
	closed bool
	stored func()
}

// shut closes the gate so subsequent submissions are deferred
func (g *actionGate) shut() {
	g.closed = true
}

// submit returns true when the action should run immediately. When the gate
// is shut it stores the action instead, overwriting any earlier one, and
// returns false.
func (g *actionGate) submit(action func()) bool {
	if g.closed {
		g.stored = action
		return false
	}
	return true
}

// release reopens the gate and returns the stored action, or nil if nothing
// was deferred while it was shut.
func (g *actionGate) release() func() {
	g.closed = false
	action := g.stored
	g.stored = nil
	return action
}
