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

package verifier

import (
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/sage-x-project/virgil-cards-go/pkg/cardcrypto"
)

// KeyResolver turns configured base64 public keys into imported keys
type KeyResolver interface {
	// ResolveKey imports a base64 encoded exported public key
	ResolveKey(publicKeyBase64 string) (cardcrypto.PublicKey, error)
}

// CachingKeyResolver implements KeyResolver and imports every key at most once
type CachingKeyResolver struct {
	crypto cardcrypto.Crypto

	mu   sync.RWMutex
	keys map[string]cardcrypto.PublicKey
}

// NewCachingKeyResolver creates a new CachingKeyResolver
func NewCachingKeyResolver(crypto cardcrypto.Crypto) *CachingKeyResolver {
	return &CachingKeyResolver{
		crypto: crypto,
		keys:   make(map[string]cardcrypto.PublicKey),
	}
}

// ResolveKey imports publicKeyBase64, returning the cached key on later calls
func (r *CachingKeyResolver) ResolveKey(publicKeyBase64 string) (cardcrypto.PublicKey, error) {
	r.mu.RLock()
	key, found := r.keys[publicKeyBase64]
	r.mu.RUnlock()
	if found {
		return key, nil
	}

	data, err := base64.StdEncoding.DecodeString(publicKeyBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode public key: %w", err)
	}

	key, err = r.crypto.ImportPublicKey(data)
	if err != nil {
		return nil, fmt.Errorf("failed to import public key: %w", err)
	}

	r.mu.Lock()
	r.keys[publicKeyBase64] = key
	r.mu.Unlock()

	return key, nil
}
