/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Tejus Pratap <tejzpr@gmail.com>
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

// Package callui abstracts the system call surface the coordinator reports
// into: native incoming-call UI on mobile platforms, a console or softphone
// frontend elsewhere. The host relays the user's accept or decline decision
// back into the coordinator; nothing in this package renders UI itself.
package callui

import "github.com/tejzpr/voicepush-go-sdk/signaling"

// Provider is implemented by the host application's call surface
type Provider interface {
	// ReportIncomingCall surfaces a ringing call to the user. An error
	// means the surface could not present the call and the coordinator
	// should treat the invite as undeliverable.
	ReportIncomingCall(callID, caller string, channel signaling.ChannelType) error

	// EndCall removes a previously reported call from the surface.
	EndCall(callID string)

	// ReportFailedCall surfaces a call that ended before it could be
	// answered, with a short human-readable reason.
	ReportFailedCall(callID, reason string)
}

// NopProvider is a Provider that ignores every report. It is the default
// when the host application does not supply one.
type NopProvider struct{}

func (NopProvider) ReportIncomingCall(callID, caller string, channel signaling.ChannelType) error {
	return nil
}

func (NopProvider) EndCall(callID string) {}

func (NopProvider) ReportFailedCall(callID, reason string) {}
