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


// Package cards provides the Card Manager, the entry point for working with
// Virgil Cards.
//
// The manager combines the card protocol, the model signer, the card verifier
// and the Cards v5 client:
//
//	manager, err := cards.NewCardManager(cards.CardManagerParams{
//	    Crypto:              crypto,
//	    AccessTokenProvider: provider,
//	    CardVerifier:        verifier.NewVirgilCardVerifier(crypto),
//	    RetryOnUnauthorized: true,
//	})
//
//	card, err := manager.PublishCard(ctx, cards.CardParams{
//	    PrivateKey: keyPair.PrivateKey,
//	    PublicKey:  keyPair.PublicKey,
//	})
//
// Every card that comes back from the service or from an import passes the
// verifier before it is returned. Trust failures are reported as
// *VerificationError and match ErrCardVerification.
//
// # Retry on Unauthorized
//
// With RetryOnUnauthorized set, a request the service rejects with code 20304
// is repeated once with a token obtained with TokenContext.ForceReload.
// Any other error, and any error of the second attempt, is returned as is.
//
// # Metrics
//
// The package registers virgil_cards_operations_total{operation,result} and
// virgil_cards_token_refresh_total{reason} with the default Prometheus
// registry.
package cards
