/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Tejus Pratap <tejzpr@gmail.com>
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

package signaling

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tejzpr/voicepush-go-sdk/voicesdk"
)

// Config holds the configuration for the signaling client
type Config struct {
	PingInterval     time.Duration // Interval between ping messages
	PongTimeout      time.Duration // Timeout for receiving a pong response
	HandshakeTimeout time.Duration // Timeout for the websocket handshake
}

// DefaultConfig returns the default configuration for the signaling client
func DefaultConfig() *Config {
	return &Config{
		PingInterval:     30 * time.Second,
		PongTimeout:      10 * time.Second,
		HandshakeTimeout: 10 * time.Second,
	}
}

// sessionResponse is the platform's response to session creation
type sessionResponse struct {
	SessionID    string `json:"sessionId"`
	WebSocketURL string `json:"webSocketUrl"`
}

// deviceResponse is the platform's response to device token registration
type deviceResponse struct {
	DeviceID string `json:"deviceId"`
}

// wireEvent is a single event frame from the signaling event stream
type wireEvent struct {
	EventType string      `json:"eventType"`
	CallID    string      `json:"callId,omitempty"`
	Caller    string      `json:"caller,omitempty"`
	Channel   ChannelType `json:"channel,omitempty"`
	Quality   RTCQuality  `json:"quality,omitempty"`
	Reason    string      `json:"reason,omitempty"`
}

// Client is the production signaling service client. HTTP operations go
// through the shared core client; inbound events arrive over a websocket
// stream and are delivered to the registered Handler one at a time, in
// arrival order. The client never reconnects on its own — when the stream
// dies it reports a session error and stays down until the caller creates
// a new session.
type Client struct {
	core   *voicesdk.Client
	config *Config

	mu        sync.Mutex
	handler   Handler
	conn      *websocket.Conn
	sessionID string
	connected bool
	closeCh   chan struct{}
}

// New creates a new signaling client
func New(core *voicesdk.Client, config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	return &Client{
		core:   core,
		config: config,
	}
}

// SetHandler registers the event handler. Must be called before CreateSession.
func (c *Client) SetHandler(h Handler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

// SessionID returns the current session identifier, or "" when no session
// is established.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// IsConnected returns whether the event stream is up
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// CreateSession exchanges the credential for a session and opens the event
// stream. A single attempt; the caller decides whether to call again.
func (c *Client) CreateSession(ctx context.Context, credential string) (string, error) {
	if credential == "" {
		return "", fmt.Errorf("credential is empty")
	}

	c.core.SetCredential(credential)

	body := map[string]interface{}{
		"correlationId": uuid.New().String(),
	}
	resp, err := c.core.RequestWithContext(ctx, http.MethodPost, "sessions", nil, body)
	if err != nil {
		return "", fmt.Errorf("session exchange failed: %w", err)
	}

	var session sessionResponse
	if err := voicesdk.ParseResponse(resp, &session); err != nil {
		return "", fmt.Errorf("session exchange failed: %w", err)
	}
	if session.SessionID == "" {
		return "", fmt.Errorf("platform returned empty session ID")
	}

	if err := c.connect(session.WebSocketURL, credential); err != nil {
		return "", fmt.Errorf("event stream connect failed: %w", err)
	}

	c.mu.Lock()
	c.sessionID = session.SessionID
	c.mu.Unlock()

	return session.SessionID, nil
}

// DestroySession tears down the session and closes the event stream
func (c *Client) DestroySession(ctx context.Context) error {
	c.disconnect()

	c.mu.Lock()
	hadSession := c.sessionID != ""
	c.sessionID = ""
	c.mu.Unlock()

	if !hadSession {
		return nil
	}

	resp, err := c.core.RequestWithContext(ctx, http.MethodDelete, "sessions/current", nil, nil)
	if err != nil {
		return fmt.Errorf("session teardown failed: %w", err)
	}
	return voicesdk.CheckResponse(resp)
}

// Answer accepts the incoming call with the given ID
func (c *Client) Answer(ctx context.Context, callID string) error {
	resp, err := c.core.RequestWithContext(ctx, http.MethodPost, "calls/"+callID+"/answer", nil, nil)
	if err != nil {
		return fmt.Errorf("answer %s: %w", callID, err)
	}
	return voicesdk.CheckResponse(resp)
}

// Reject declines the incoming call with the given ID
func (c *Client) Reject(ctx context.Context, callID string) error {
	resp, err := c.core.RequestWithContext(ctx, http.MethodPost, "calls/"+callID+"/reject", nil, nil)
	if err != nil {
		return fmt.Errorf("reject %s: %w", callID, err)
	}
	return voicesdk.CheckResponse(resp)
}

// RegisterDeviceToken registers a push token and returns the assigned
// device ID.
func (c *Client) RegisterDeviceToken(ctx context.Context, token []byte) (string, error) {
	body := map[string]interface{}{
		"token":         base64.StdEncoding.EncodeToString(token),
		"tokenType":     "voip",
		"correlationId": uuid.New().String(),
	}
	resp, err := c.core.RequestWithContext(ctx, http.MethodPost, "devices", nil, body)
	if err != nil {
		return "", fmt.Errorf("token registration failed: %w", err)
	}

	var device deviceResponse
	if err := voicesdk.ParseResponse(resp, &device); err != nil {
		return "", fmt.Errorf("token registration failed: %w", err)
	}
	if device.DeviceID == "" {
		return "", fmt.Errorf("platform returned empty device ID")
	}
	return device.DeviceID, nil
}

// UnregisterDeviceToken removes the registration for a device ID
func (c *Client) UnregisterDeviceToken(ctx context.Context, deviceID string) error {
	resp, err := c.core.RequestWithContext(ctx, http.MethodDelete, "devices/"+deviceID, nil, nil)
	if err != nil {
		return fmt.Errorf("token unregistration failed: %w", err)
	}
	return voicesdk.CheckResponse(resp)
}

// ProcessPushPayload decodes a push payload into a call invite. Unrecognized
// payloads yield ("", nil) so hosts can forward every push without
// pre-filtering. A recognized invite is also delivered through the handler,
// matching the event the platform would have sent had the stream been up.
func (c *Client) ProcessPushPayload(payload map[string]interface{}) (string, error) {
	if PushType(payload) != PayloadIncomingCall {
		return "", nil
	}

	env := payload[envelopeKey].(map[string]interface{})
	invite, ok := env["invite"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("malformed call invite payload")
	}

	callID, _ := invite["call_id"].(string)
	if callID == "" {
		return "", fmt.Errorf("call invite payload missing call_id")
	}
	caller, _ := invite["caller"].(string)
	channel, _ := invite["channel"].(string)
	if channel == "" {
		channel = string(ChannelApp)
	}

	c.dispatchInvite(callID, caller, ChannelType(channel))
	return callID, nil
}

// --- event stream ---

// connect dials the websocket and starts the keepalive and read loops
func (c *Client) connect(wsURL, credential string) error {
	if wsURL == "" {
		return fmt.Errorf("platform returned empty event stream URL")
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+credential)
	headers.Set("TrackingID", voicesdk.TrackingID())

	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.HandshakeTimeout,
	}
	if transport, ok := c.core.GetHTTPClient().Transport.(*http.Transport); ok && transport != nil {
		dialer.NetDialContext = transport.DialContext
	}

	conn, _, err := dialer.Dial(wsURL, headers)
	if err != nil {
		return err
	}

	conn.SetPongHandler(func(string) error {
		// Pong received in time, clear the deadline until the next ping
		return conn.SetReadDeadline(time.Time{})
	})

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.closeCh = make(chan struct{})
	closeCh := c.closeCh
	c.mu.Unlock()

	go c.keepalive(conn, closeCh)
	go c.listen(conn, closeCh)

	return nil
}

// disconnect closes the event stream deliberately, without a session error
func (c *Client) disconnect() {
	c.mu.Lock()
	conn := c.conn
	closeCh := c.closeCh
	c.conn = nil
	c.connected = false
	c.closeCh = nil
	c.mu.Unlock()

	if closeCh != nil {
		close(closeCh)
	}
	if conn != nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Disconnected by client"))
		_ = conn.Close()
	}
}

// keepalive sends periodic pings. Each ping arms a read deadline; the pong
// handler disarms it, so a missed pong surfaces in the read loop as a
// timeout error.
func (c *Client) keepalive(conn *websocket.Conn, closeCh chan struct{}) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := conn.SetReadDeadline(time.Now().Add(c.config.PongTimeout)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, []byte(voicesdk.TrackingID())); err != nil {
				return
			}
		case <-closeCh:
			return
		}
	}
}

// listen reads event frames and delivers them to the handler. Events are
// dispatched inline so the handler sees them serialized in arrival order.
func (c *Client) listen(conn *websocket.Conn, closeCh chan struct{}) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			c.handleStreamError(err, closeCh)
			return
		}

		var event wireEvent
		if err := json.Unmarshal(message, &event); err != nil {
			c.core.GetLogger().Printf("signaling: dropping malformed event frame: %v", err)
			continue
		}

		c.processEvent(&event)
	}
}

// handleStreamError classifies a read-loop failure and reports it as a
// session error, unless the stream was closed deliberately. The socket is
// closed and the keepalive retired here so a later CreateSession starts
// from a clean slate.
func (c *Client) handleStreamError(err error, closeCh chan struct{}) {
	select {
	case <-closeCh:
		// Deliberate disconnect, not an error
		return
	default:
	}

	// Tear down only while this stream is still the current one; a
	// replacement session's conn must not be touched.
	c.mu.Lock()
	if c.closeCh != closeCh {
		c.mu.Unlock()
		return
	}
	conn := c.conn
	c.conn = nil
	c.connected = false
	c.closeCh = nil
	c.mu.Unlock()

	close(closeCh)
	if conn != nil {
		_ = conn.Close()
	}

	reason := SessionErrorTransportClosed
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		reason = SessionErrorPingTimeout
	}

	c.core.GetLogger().Printf("signaling: event stream down (%s): %v", reason, err)
	c.dispatchSessionError(reason)
}

// processEvent routes a wire event to the handler
func (c *Client) processEvent(event *wireEvent) {
	switch event.EventType {
	case "call.invite":
		c.dispatchInvite(event.CallID, event.Caller, event.Channel)
	case "call.hangup":
		c.dispatchHangup(event.CallID, event.Quality, HangupReason(event.Reason))
	case "call.cancel":
		c.dispatchCancel(event.CallID, CancelReason(event.Reason))
	case "session.error":
		c.dispatchSessionError(SessionErrorReason(event.Reason))
	default:
		c.core.GetLogger().Printf("signaling: ignoring event type %q", event.EventType)
	}
}

func (c *Client) currentHandler() Handler {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler
}

func (c *Client) dispatchInvite(callID, caller string, channel ChannelType) {
	if h := c.currentHandler(); h != nil {
		h.OnInviteReceived(callID, caller, channel)
	}
}

func (c *Client) dispatchHangup(callID string, quality RTCQuality, reason HangupReason) {
	if h := c.currentHandler(); h != nil {
		h.OnHangup(callID, quality, reason)
	}
}

func (c *Client) dispatchCancel(callID string, reason CancelReason) {
	if h := c.currentHandler(); h != nil {
		h.OnInviteCancelled(callID, reason)
	}
}

func (c *Client) dispatchSessionError(reason SessionErrorReason) {
	if h := c.currentHandler(); h != nil {
		h.OnSessionError(reason)
	}
}
