/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Tejus Pratap <tejzpr@gmail.com>
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

// Package signaling defines the contract with the voice platform's
// signaling service and provides the production client for it. The
// coordinator only depends on the Service and Handler interfaces, so hosts
// and tests can substitute their own implementations.
package signaling

import "context"

// ChannelType identifies the medium of an incoming call
type ChannelType string

const (
	ChannelApp   ChannelType = "app"
	ChannelPhone ChannelType = "phone"
	ChannelSIP   ChannelType = "sip"
)

// HangupReason identifies why an established call ended
type HangupReason string

const (
	HangupRemote       HangupReason = "remoteHangup"
	HangupLocal        HangupReason = "localHangup"
	HangupMediaTimeout HangupReason = "mediaTimeout"
	HangupUnknown      HangupReason = "unknown"
)

// CancelReason identifies why a pending invite was cancelled before answer
type CancelReason string

const (
	CancelRemote    CancelReason = "remoteCancel"
	CancelTimeout   CancelReason = "remoteTimeout"
	CancelElsewhere CancelReason = "answeredElsewhere"
	CancelRejected  CancelReason = "rejectedElsewhere"
)

// RTCQuality carries the media quality stats reported with a hangup
type RTCQuality struct {
	MOS        float64 `json:"mos,omitempty"`
	Jitter     float64 `json:"jitter,omitempty"`
	PacketLoss float64 `json:"packetLoss,omitempty"`
}

// SessionErrorReason classifies session-level failures reported by the
// platform over the event stream or detected on the transport.
type SessionErrorReason string

const (
	SessionErrorTokenExpired    SessionErrorReason = "tokenExpired"
	SessionErrorPingTimeout     SessionErrorReason = "pingTimeout"
	SessionErrorTransportClosed SessionErrorReason = "transportClosed"
	SessionErrorUnknown         SessionErrorReason = "unknown"
)

// StatusText returns the human-readable status string shown to users for
// this reason. Ping timeouts and transport closures are both presented as
// network errors.
func (r SessionErrorReason) StatusText() string {
	switch r {
	case SessionErrorTokenExpired:
		return "Expired Token"
	case SessionErrorPingTimeout, SessionErrorTransportClosed:
		return "Network Error"
	default:
		return "Unknown"
	}
}

// Handler receives inbound events from the signaling service. Implementations
// must be safe for calls from the service's event loop; the production client
// delivers events one at a time.
type Handler interface {
	// OnInviteReceived is called when the platform delivers an incoming
	// call invite, either over the event stream or as the result of
	// decoding a push payload.
	OnInviteReceived(callID, caller string, channel ChannelType)

	// OnHangup is called when an established call ends.
	OnHangup(callID string, quality RTCQuality, reason HangupReason)

	// OnInviteCancelled is called when a pending invite is withdrawn
	// before the user answered.
	OnInviteCancelled(callID string, reason CancelReason)

	// OnSessionError is called when the session becomes unusable. The
	// service does not reconnect on its own; recovery is up to the caller.
	OnSessionError(reason SessionErrorReason)
}

// Service is the signaling surface the coordinator drives. The production
// implementation is Client; tests use fakes.
type Service interface {
	// CreateSession exchanges a bearer credential for a session and opens
	// the event stream. Returns the opaque session identifier.
	CreateSession(ctx context.Context, credential string) (string, error)

	// DestroySession tears down the session and closes the event stream.
	DestroySession(ctx context.Context) error

	// Answer accepts the incoming call with the given ID.
	Answer(ctx context.Context, callID string) error

	// Reject declines the incoming call with the given ID.
	Reject(ctx context.Context, callID string) error

	// ProcessPushPayload decodes an incoming push payload into a call
	// invite ID and delivers the invite through the handler. Payloads not
	// originating from the platform yield an empty ID and no error.
	ProcessPushPayload(payload map[string]interface{}) (string, error)

	// RegisterDeviceToken registers a push token with the platform and
	// returns the device ID the platform assigned to it.
	RegisterDeviceToken(ctx context.Context, token []byte) (string, error)

	// UnregisterDeviceToken removes the registration for a device ID.
	UnregisterDeviceToken(ctx context.Context, deviceID string) error

	// SetHandler registers the single event handler. Must be called before
	// CreateSession.
	SetHandler(h Handler)
}

// PayloadType is the classification of an incoming push payload
type PayloadType string

const (
	PayloadIncomingCall PayloadType = "incoming_call"
	PayloadUnknown      PayloadType = "unknown"
)

// envelopeKey is the top-level key identifying a platform push payload.
const envelopeKey = "voicepush"

// PushType classifies a raw push payload. Only payloads carrying the
// platform envelope with a recognized message type are considered ours;
// everything else is PayloadUnknown and should be ignored by callers.
func PushType(payload map[string]interface{}) PayloadType {
	env, ok := payload[envelopeKey].(map[string]interface{})
	if !ok {
		return PayloadUnknown
	}
	msgType, ok := env["message_type"].(string)
	if !ok {
		return PayloadUnknown
	}
	switch msgType {
	case "call_invite":
		return PayloadIncomingCall
	default:
		return PayloadUnknown
	}
}
