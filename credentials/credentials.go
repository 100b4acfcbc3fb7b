/* SPDX-License-Identifier: MPL-2.0
 * Copyright 2025 Tejus Pratap <tejzpr@gmail.com>
 *
 * See CONTRIBUTORS.md for full contributor list.
 */

// Package credentials supplies the bearer credential exchanged for a
// session. The platform issues short-lived JWTs from a customer backend;
// the SDK treats them as opaque strings and only inspects claims to warn
// about credentials that are already expired.
package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

// Provider supplies an opaque bearer credential. Implementations should
// fetch it from a trusted backend; hardcoding a credential is acceptable
// only for development.
type Provider interface {
	Credential(ctx context.Context) (string, error)
}

// StaticProvider returns a fixed credential string. Intended for tests and
// development builds mirroring the original demo's hardcoded JWT.
type StaticProvider struct {
	Token string
}

// Credential returns the fixed credential, or an error when none was set
func (p *StaticProvider) Credential(ctx context.Context) (string, error) {
	if p.Token == "" {
		return "", fmt.Errorf("no credential configured")
	}
	return p.Token, nil
}

// HTTPProvider fetches the credential from a customer backend endpoint
// returning JSON of the form {"jwt": "..."}.
type HTTPProvider struct {
	// URL is the backend endpoint issuing credentials
	URL string

	// HttpClient is the client used for the fetch. If nil, a default
	// client with a 10 second timeout is used.
	HttpClient *http.Client
}

// Credential fetches a credential from the backend
func (p *HTTPProvider) Credential(ctx context.Context) (string, error) {
	if p.URL == "" {
		return "", fmt.Errorf("no credential endpoint configured")
	}

	client := p.HttpClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("credential fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("credential fetch failed: %s", resp.Status)
	}

	var out struct {
		JWT string `json:"jwt"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("credential fetch failed: %w", err)
	}
	if out.JWT == "" {
		return "", fmt.Errorf("backend returned empty credential")
	}
	return out.JWT, nil
}

// Info describes what could be learned from inspecting a credential.
// Opaque (non-JWT) credentials yield an Info with Opaque set and nothing
// else populated.
type Info struct {
	// Opaque is true when the credential is not a parseable JWT
	Opaque bool

	// Subject is the JWT sub claim, if present
	Subject string

	// Expiry is the JWT exp claim, zero if absent
	Expiry time.Time
}

// Expired reports whether the credential is known to be expired at t.
// Opaque credentials and credentials without an exp claim are never
// reported as expired.
func (i Info) Expired(t time.Time) bool {
	if i.Opaque || i.Expiry.IsZero() {
		return false
	}
	return t.After(i.Expiry)
}

// signatureAlgorithms lists the algorithms accepted when parsing a
// credential for inspection. The platform verifies signatures; the SDK
// only reads claims, so the list is permissive.
var signatureAlgorithms = []jose.SignatureAlgorithm{
	jose.RS256, jose.RS384, jose.RS512,
	jose.ES256, jose.ES384, jose.ES512,
	jose.HS256, jose.HS384, jose.HS512,
}

// Inspect parses the credential as a signed JWT and extracts advisory
// claims. The signature is NOT verified — the platform is the authority on
// credential validity; this exists so a client can skip a login attempt
// that is certain to fail. Unparseable credentials are reported as opaque,
// not as errors.
func Inspect(credential string) Info {
	parsed, err := jwt.ParseSigned(credential, signatureAlgorithms)
	if err != nil {
		return Info{Opaque: true}
	}

	var claims jwt.Claims
	if err := parsed.UnsafeClaimsWithoutVerification(&claims); err != nil {
		return Info{Opaque: true}
	}

	info := Info{Subject: claims.Subject}
	if claims.Expiry != nil {
		info.Expiry = claims.Expiry.Time()
	}
	return info
}
