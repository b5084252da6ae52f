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
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultExpiryMargin is how long before expiry a cached token is renewed
const DefaultExpiryMargin = 5 * time.Second

// CachingJwtProvider caches the last token and renews it through a callback
// once it is within the expiry margin. Concurrent callers share one renewal.
type CachingJwtProvider struct {
	renew  RenewTokenFunc
	margin time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	token *Jwt

	group singleflight.Group
}

// CachingOption configures a CachingJwtProvider
type CachingOption func(*CachingJwtProvider)

// WithInitialToken seeds the cache
func WithInitialToken(token *Jwt) CachingOption {
	return func(p *CachingJwtProvider) {
		p.token = token
	}
}

// WithExpiryMargin overrides DefaultExpiryMargin
func WithExpiryMargin(margin time.Duration) CachingOption {
	return func(p *CachingJwtProvider) {
		p.margin = margin
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) CachingOption {
	return func(p *CachingJwtProvider) {
		p.now = now
	}
}

// NewCachingJwtProvider creates a new CachingJwtProvider
func NewCachingJwtProvider(renew RenewTokenFunc, opts ...CachingOption) *CachingJwtProvider {
	p := &CachingJwtProvider{
		renew:  renew,
		margin: DefaultExpiryMargin,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetToken returns the cached token unless it is about to expire or the
// context asks for a reload.
//
// A renewal started by one caller runs with that caller's context; callers
// joining it receive its result.
func (p *CachingJwtProvider) GetToken(ctx context.Context, tokenContext *TokenContext) (AccessToken, error) {
	forceReload := tokenContext != nil && tokenContext.ForceReload

	if !forceReload {
		if token := p.cached(); token != nil {
			return token, nil
		}
	}

	if p.renew == nil {
		return nil, ErrNoRenewal
	}

	result, err, _ := p.group.Do("renew", func() (any, error) {
		str, err := p.renew(ctx, tokenContext)
		if err != nil {
			return nil, fmt.Errorf("failed to renew token: %w", err)
		}

		token, err := ParseJwt(str)
		if err != nil {
			return nil, err
		}

		p.mu.Lock()
		p.token = token
		p.mu.Unlock()

		return token, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*Jwt), nil
}

func (p *CachingJwtProvider) cached() *Jwt {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.token == nil || p.token.IsExpired(p.now().Add(p.margin)) {
		return nil
	}
	return p.token
}

var _ AccessTokenProvider = (*CachingJwtProvider)(nil)
