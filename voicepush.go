/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Tejus Pratap <tejzpr@gmail.com>
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

package voicepush

import (
	"sync"

	"github.com/tejzpr/voicepush-go-sdk/callui"
	"github.com/tejzpr/voicepush-go-sdk/coordinator"
	"github.com/tejzpr/voicepush-go-sdk/credentials"
	"github.com/tejzpr/voicepush-go-sdk/pushreg"
	"github.com/tejzpr/voicepush-go-sdk/signaling"
	"github.com/tejzpr/voicepush-go-sdk/stats"
	"github.com/tejzpr/voicepush-go-sdk/tokenstore"
	"github.com/tejzpr/voicepush-go-sdk/voicesdk"
)

// VoicePushClient is the top-level client for the voice platform
type VoicePushClient struct {
	// Core client for the platform API
	core *voicesdk.Client

	// Injected collaborators
	store tokenstore.Store
	creds credentials.Provider
	ui    callui.Provider
	stats *stats.Stats

	// Plugins
	signalingClient *signaling.Client
	registrarClient *pushreg.Registrar
	coord           *coordinator.Coordinator

	// Mutex for thread-safe lazy initialization of the coordinator
	coordMu sync.Mutex
}

// Options configures the collaborators of a VoicePushClient. Every field is
// optional: the token store defaults to in-memory, the credential provider
// to a static provider over the given credential, and the call UI to a
// no-op provider.
type Options struct {
	// Config for the core API client
	Config *voicesdk.Config

	// TokenStore persists the push token registration across restarts
	TokenStore tokenstore.Store

	// Credentials supplies the bearer credential for login
	Credentials credentials.Provider

	// CallUI receives incoming-call reports
	CallUI callui.Provider

	// Stats receives lifecycle counters
	Stats *stats.Stats
}

// NewClient creates a new client with the given credential and options
func NewClient(credential string, opts *Options) (*VoicePushClient, error) {
	if opts == nil {
		opts = &Options{}
	}

	core, err := voicesdk.NewClient(credential, opts.Config)
	if err != nil {
		return nil, err
	}

	client := &VoicePushClient{
		core:  core,
		store: opts.TokenStore,
		creds: opts.Credentials,
		ui:    opts.CallUI,
		stats: opts.Stats,
	}
	if client.store == nil {
		client.store = tokenstore.NewMemoryStore()
	}
	if client.creds == nil {
		client.creds = &credentials.StaticProvider{Token: credential}
	}
	if client.ui == nil {
		client.ui = callui.NopProvider{}
	}

	return client, nil
}

// Signaling returns the Signaling plugin
func (c *VoicePushClient) Signaling() *signaling.Client {
	if c.signalingClient == nil {
		c.signalingClient = signaling.New(c.core, nil)
	}
	return c.signalingClient
}

// Registrar returns the push-token Registrar plugin
func (c *VoicePushClient) Registrar() *pushreg.Registrar {
	if c.registrarClient == nil {
		c.registrarClient = pushreg.New(c.Signaling(), c.store, nil)
	}
	return c.registrarClient
}

// Coordinator returns the fully-wired call-session Coordinator.
//
// This is a convenience method that abstracts away the manual wiring of the
// signaling client, token registrar, credential provider, and call surface.
// The coordinator is lazily initialized on first call and cached for
// subsequent calls.
//
// Simple usage:
//
//	coord := client.Coordinator()
//	coord.OnStatus(func(status string) { fmt.Println(status) })
//	coord.Login(ctx, false)
//
// For advanced control, wire the lower-level APIs directly (signaling.New,
// pushreg.New, coordinator.New).
func (c *VoicePushClient) Coordinator() *coordinator.Coordinator {
	c.coordMu.Lock()
	defer c.coordMu.Unlock()

	if c.coord != nil {
		return c.coord
	}

	c.coord = coordinator.New(c.Signaling(), c.creds, c.Registrar(), c.ui, &coordinator.Config{
		Logger: c.core.GetLogger(),
		Stats:  c.stats,
	})
	return c.coord
}

// Core returns the core platform client
func (c *VoicePushClient) Core() *voicesdk.Client {
	return c.core
}
