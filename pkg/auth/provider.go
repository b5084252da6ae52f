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
	"context"
	"fmt"
)

// TokenContext describes what a token is requested for
type TokenContext struct {
	// Identity is the identity the operation acts for, may be empty
	Identity string

	// Operation is the operation name, e.g. "get", "search" or "publish"
	Operation string

	// Service is the target service, "cards" for the Cards API
	Service string

	// ForceReload asks caching providers to skip their cache
	ForceReload bool
}

// AccessToken is a token that can be sent to the Cards service
type AccessToken interface {
	// Identity returns the identity the token was issued for
	Identity() (string, error)

	// String returns the wire form of the token
	String() string
}

// AccessTokenProvider supplies access tokens for requests
type AccessTokenProvider interface {
	GetToken(ctx context.Context, tokenContext *TokenContext) (AccessToken, error)
}

// ConstAccessTokenProvider always returns the same token
type ConstAccessTokenProvider struct {
	token AccessToken
}

// NewConstAccessTokenProvider creates a new ConstAccessTokenProvider
func NewConstAccessTokenProvider(token AccessToken) *ConstAccessTokenProvider {
	return &ConstAccessTokenProvider{token: token}
}

// GetToken implements AccessTokenProvider
func (p *ConstAccessTokenProvider) GetToken(ctx context.Context, tokenContext *TokenContext) (AccessToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	return p.token, nil
}

// GeneratorJwtProvider issues a fresh token for every request
type GeneratorJwtProvider struct {
	generator       *JwtGenerator
	defaultIdentity string
	additionalData  map[string]any
}

// NewGeneratorJwtProvider creates a provider that signs tokens locally.
// defaultIdentity is used when the token context names no identity.
func NewGeneratorJwtProvider(generator *JwtGenerator, defaultIdentity string, additionalData map[string]any) *GeneratorJwtProvider {
	return &GeneratorJwtProvider{
		generator:       generator,
		defaultIdentity: defaultIdentity,
		additionalData:  additionalData,
	}
}

// GetToken implements AccessTokenProvider
func (p *GeneratorJwtProvider) GetToken(ctx context.Context, tokenContext *TokenContext) (AccessToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	identity := p.defaultIdentity
	if tokenContext != nil && tokenContext.Identity != "" {
		identity = tokenContext.Identity
	}

	return p.generator.GenerateToken(identity, p.additionalData)
}

// RenewTokenFunc obtains a token string, usually from an application backend
type RenewTokenFunc func(ctx context.Context, tokenContext *TokenContext) (string, error)

// CallbackJwtProvider asks a callback for every token
type CallbackJwtProvider struct {
	getToken RenewTokenFunc
}

// NewCallbackJwtProvider creates a new CallbackJwtProvider
func NewCallbackJwtProvider(getToken RenewTokenFunc) *CallbackJwtProvider {
	return &CallbackJwtProvider{getToken: getToken}
}

// GetToken implements AccessTokenProvider
func (p *CallbackJwtProvider) GetToken(ctx context.Context, tokenContext *TokenContext) (AccessToken, error) {
	if p.getToken == nil {
		return nil, ErrNoRenewal
	}

	str, err := p.getToken(ctx, tokenContext)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain token: %w", err)
	}

	return ParseJwt(str)
}

var (
	_ AccessToken         = (*Jwt)(nil)
	_ AccessTokenProvider = (*ConstAccessTokenProvider)(nil)
	_ AccessTokenProvider = (*GeneratorJwtProvider)(nil)
	_ AccessTokenProvider = (*CallbackJwtProvider)(nil)
)
