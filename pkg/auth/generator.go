// Copyright (C) 2025 SAGE-X Project
//
// This file is part of virgil-cards-go.
//
// virgil-cards-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// virgil-cards-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with virgil-cards-go.  If not, see <https://www.gnu.org/licenses/>.

package auth

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/sage-x-project/virgil-cards-go/pkg/cardcrypto"
)

// DefaultTokenTTL is the lifetime of generated tokens when none is configured
const DefaultTokenTTL = 20 * time.Minute

// JwtGeneratorParams configures a JwtGenerator
type JwtGeneratorParams struct {
	// AppID is the application id written into iss
	AppID string

	// APIKey signs the tokens
	APIKey cardcrypto.PrivateKey

	// APIKeyID is written into the kid header
	APIKeyID string

	// AccessTokenSigner produces the token signature
	AccessTokenSigner cardcrypto.AccessTokenSigner

	// TTL defaults to DefaultTokenTTL
	TTL time.Duration

	// Now defaults to time.Now
	Now func() time.Time
}

// JwtGenerator issues tokens signed with an application API key
type JwtGenerator struct {
	appID    string
	apiKey   cardcrypto.PrivateKey
	apiKeyID string
	method   *signingMethod
	ttl      time.Duration
	now      func() time.Time
}

// NewJwtGenerator creates a new JwtGenerator
func NewJwtGenerator(params JwtGeneratorParams) (*JwtGenerator, error) {
	switch {
	case params.AppID == "":
		return nil, fmt.Errorf("%w: app id", ErrMissingParams)
	case params.APIKey == nil:
		return nil, fmt.Errorf("%w: api key", ErrMissingParams)
	case params.APIKeyID == "":
		return nil, fmt.Errorf("%w: api key id", ErrMissingParams)
	case params.AccessTokenSigner == nil:
		return nil, fmt.Errorf("%w: access token signer", ErrMissingParams)
	}

	ttl := params.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := params.Now
	if now == nil {
		now = time.Now
	}

	return &JwtGenerator{
		appID:    params.AppID,
		apiKey:   params.APIKey,
		apiKeyID: params.APIKeyID,
		method:   newSigningMethod(params.AccessTokenSigner),
		ttl:      ttl,
		now:      now,
	}, nil
}

// GenerateToken issues a token for identity carrying optional additional data
func (g *JwtGenerator) GenerateToken(identity string, additionalData map[string]any) (*Jwt, error) {
	if identity == "" {
		return nil, fmt.Errorf("%w: identity", ErrMissingParams)
	}

	issuedAt := g.now()
	body := NewJwtBody(g.appID, identity, issuedAt, issuedAt.Add(g.ttl), additionalData)

	token := jwtlib.NewWithClaims(g.method, &body)
	token.Header["cty"] = JwtContentType
	token.Header["kid"] = g.apiKeyID

	signed, err := token.SignedString(g.apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign jwt: %w", err)
	}

	return ParseJwt(signed)
}

// TTL returns the lifetime of generated tokens
func (g *JwtGenerator) TTL() time.Duration {
	return g.ttl
}
