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
	"github.com/sage-x-project/virgil-cards-go/pkg/cardcrypto"
	"github.com/sage-x-project/virgil-cards-go/pkg/protocol"
	"github.com/sage-x-project/virgil-cards-go/pkg/signer"
)

// VirgilPublicKey is the base64 encoded public key of the Virgil Cards service
const VirgilPublicKey = "MCowBQYDK2VwAyEAljOYGANYiVq1WbvVvoYIKtvZi2ji9bAhxyu6iV/LF8M="

// CardVerifier decides whether a card can be trusted
type CardVerifier interface {
	// VerifyCard reports whether the card satisfies the verifier policy
	VerifyCard(card *protocol.Card) bool
}

// VirgilCardVerifier checks the self signature, the service signature and
// any number of whitelist groups.
//
// Whitelists are combined with AND; the credentials inside one whitelist
// are combined with OR.
type VirgilCardVerifier struct {
	crypto   cardcrypto.Crypto
	resolver KeyResolver

	verifySelfSignature   bool
	verifyVirgilSignature bool
	servicePublicKey      string
	whitelists            []Whitelist
}

// Option configures a VirgilCardVerifier
type Option func(*VirgilCardVerifier)

// WithoutSelfSignature disables the self signature check
func WithoutSelfSignature() Option {
	return func(v *VirgilCardVerifier) {
		v.verifySelfSignature = false
	}
}

// WithoutVirgilSignature disables the service signature check
func WithoutVirgilSignature() Option {
	return func(v *VirgilCardVerifier) {
		v.verifyVirgilSignature = false
	}
}

// WithServicePublicKey replaces the service key (base64 exported public key)
func WithServicePublicKey(publicKeyBase64 string) Option {
	return func(v *VirgilCardVerifier) {
		v.servicePublicKey = publicKeyBase64
	}
}

// WithWhitelists adds whitelist groups
func WithWhitelists(whitelists ...Whitelist) Option {
	return func(v *VirgilCardVerifier) {
		v.whitelists = append(v.whitelists, whitelists...)
	}
}

// WithKeyResolver replaces the default caching key resolver
func WithKeyResolver(resolver KeyResolver) Option {
	return func(v *VirgilCardVerifier) {
		v.resolver = resolver
	}
}

// NewVirgilCardVerifier creates a verifier that by default requires both the
// self and the service signature
func NewVirgilCardVerifier(crypto cardcrypto.Crypto, opts ...Option) *VirgilCardVerifier {
	v := &VirgilCardVerifier{
		crypto:                crypto,
		verifySelfSignature:   true,
		verifyVirgilSignature: true,
		servicePublicKey:      VirgilPublicKey,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.resolver == nil {
		v.resolver = NewCachingKeyResolver(crypto)
	}
	return v
}

// VerifyCard implements CardVerifier
func (v *VirgilCardVerifier) VerifyCard(card *protocol.Card) bool {
	if card == nil {
		return false
	}

	if v.verifySelfSignature && !v.ValidateSignerSignature(card, card.PublicKey, protocol.SelfSigner) {
		return false
	}

	if v.verifyVirgilSignature {
		serviceKey, err := v.resolver.ResolveKey(v.servicePublicKey)
		if err != nil {
			return false
		}
		if !v.ValidateSignerSignature(card, serviceKey, protocol.VirgilSigner) {
			return false
		}
	}

	for _, whitelist := range v.whitelists {
		if !v.verifyWhitelist(card, whitelist) {
			return false
		}
	}

	return true
}

// verifyWhitelist reports whether any credential whose signer signed the
// card verifies. A group none of whose signers signed the card fails.
func (v *VirgilCardVerifier) verifyWhitelist(card *protocol.Card, whitelist Whitelist) bool {
	present := make(map[string]struct{}, len(card.Signatures))
	for _, s := range card.Signatures {
		present[s.Signer] = struct{}{}
	}

	for _, credentials := range whitelist {
		if _, ok := present[credentials.Signer]; !ok {
			continue
		}

		key, err := v.resolver.ResolveKey(credentials.PublicKeyBase64)
		if err != nil {
			continue
		}
		if v.ValidateSignerSignature(card, key, credentials.Signer) {
			return true
		}
	}

	return false
}

// ValidateSignerSignature verifies the first signature of signerID on card
// under publicKey
func (v *VirgilCardVerifier) ValidateSignerSignature(card *protocol.Card, publicKey cardcrypto.PublicKey, signerID string) bool {
	if card == nil || publicKey == nil {
		return false
	}

	signature, ok := card.Signature(signerID)
	if !ok {
		return false
	}

	payload := signer.SignedPayload(card.ContentSnapshot, signature.Snapshot)
	return v.crypto.VerifySignature(payload, signature.Signature, publicKey)
}

var _ CardVerifier = (*VirgilCardVerifier)(nil)
