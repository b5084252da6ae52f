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

// Package protocol provides the Virgil Cards v5 wire format.
//
// A card travels as a RawSignedModel: the canonical content snapshot of the
// card plus an ordered list of signatures. The content snapshot is the exact
// byte sequence that is hashed for the card id and signed by every signer, so
// it is never re-encoded once created.
//
// # Generating Cards
//
//	model, err := protocol.GenerateRawSigned(crypto, protocol.RawCardParams{
//	    Identity:  "alice@example.com",
//	    PublicKey: keyPair.PublicKey,
//	})
//
// or with the fluent builder:
//
//	params := protocol.NewRawCardBuilder("alice@example.com", keyPair.PublicKey).
//	    WithPreviousCardID(oldCard.ID).
//	    Build()
//
// # Parsing Cards
//
//	model, err := protocol.RawSignedModelFromString(exported)
//	card, err := protocol.ParseRawSignedModel(crypto, model)
//
// ParseRawSignedModel recomputes the card id from the content snapshot. Errors
// caused by malformed base64 or JSON match ErrFormat:
//
//	if errors.Is(err, protocol.ErrFormat) {
//	    // reject input
//	}
//
// # Extra Fields
//
// Signers may attach extra string fields to their signature. The fields are
// serialized in insertion order and the bytes are stored next to the
// signature:
//
//	fields := protocol.NewExtraFields("department", "finance", "level", "2")
//
// # Chains
//
// Search results contain every card of an identity, including replaced ones.
// LinkCards returns only the newest card of every rotation chain, with older
// cards reachable through PreviousCard.
package protocol
