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

// Package verifier provides trust policies for Virgil Cards.
//
// # Default Policy
//
// The VirgilCardVerifier requires the card's own signature and the signature
// of the Cards service:
//
//	v := verifier.NewVirgilCardVerifier(crypto)
//	if !v.VerifyCard(card) {
//	    log.Fatal("card is not trusted")
//	}
//
// The service key defaults to VirgilPublicKey and can be replaced, for
// example when talking to a private deployment:
//
//	v := verifier.NewVirgilCardVerifier(crypto,
//	    verifier.WithServicePublicKey(servicePublicKeyBase64),
//	)
//
// # Whitelists
//
// Whitelists add custom signers. Each whitelist is a group of acceptable
// credentials; a card must satisfy every group, and satisfies a group when at
// least one credential whose signer signed the card verifies:
//
//	authorities := verifier.NewWhitelist(
//	    verifier.VerifierCredentials{Signer: "authority", PublicKeyBase64: currentKey},
//	    verifier.VerifierCredentials{Signer: "authority", PublicKeyBase64: previousKey},
//	)
//	notaries := verifier.NewWhitelist(
//	    verifier.VerifierCredentials{Signer: "notary", PublicKeyBase64: notaryKey},
//	)
//
//	v := verifier.NewVirgilCardVerifier(crypto,
//	    verifier.WithWhitelists(authorities, notaries),
//	)
//
// An empty whitelist can never be satisfied.
//
// # Key Resolution
//
// Whitelist and service keys are configured as base64 strings and imported
// through a KeyResolver. The default CachingKeyResolver imports every key once.
package verifier
