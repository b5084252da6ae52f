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

package protocol

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/sage-x-project/virgil-cards-go/pkg/cardcrypto"
)

const (
	// SelfSigner is the signer id of a card's own signature
	SelfSigner = "self"

	// VirgilSigner is the signer id of the Cards service signature
	VirgilSigner = "virgil"

	// CardVersion is the content version written into new cards
	CardVersion = "5.0"

	// CardIDByteLength is how many bytes of the SHA-512 digest form a card id
	CardIDByteLength = 32
)

// CardSignature is a parsed signature entry of a Card
type CardSignature struct {
	Signer    string
	Signature []byte

	// Snapshot holds the signed extra fields bytes, nil when there are none
	Snapshot []byte

	// ExtraFields is the best-effort decoding of Snapshot
	ExtraFields *ExtraFields
}

// Card is a signed identity record binding an identity to a public key.
//
// Cards are values: apart from IsOutdated and PreviousCard, which are only
// filled in by LinkCards on its own copies, no field changes after parsing.
type Card struct {
	// ID is the hex encoded truncated SHA-512 of ContentSnapshot
	ID string

	Identity  string
	PublicKey cardcrypto.PublicKey
	Version   string
	CreatedAt time.Time

	// PreviousCardID is the id of the card this one replaces, empty if none
	PreviousCardID string

	// PreviousCard is set by LinkCards when the replaced card was in the same batch
	PreviousCard *Card

	// IsOutdated is true once a newer card replaced this one
	IsOutdated bool

	// ContentSnapshot is kept byte-for-byte; ID and signatures are computed over it
	ContentSnapshot []byte

	Signatures []*CardSignature
}

// Signature returns the first signature made by signer
func (c *Card) Signature(signer string) (*CardSignature, bool) {
	for _, s := range c.Signatures {
		if s.Signer == signer {
			return s, true
		}
	}
	return nil, false
}

// RawCardParams describes a card to be generated
type RawCardParams struct {
	Identity       string
	PublicKey      cardcrypto.PublicKey
	PreviousCardID string

	// CreatedAt defaults to the current time
	CreatedAt time.Time
}

// GenerateRawSigned builds an unsigned RawSignedModel for params
func GenerateRawSigned(crypto cardcrypto.Crypto, params RawCardParams) (*RawSignedModel, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	publicKey, err := crypto.ExportPublicKey(params.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to export public key: %w", err)
	}

	createdAt := params.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	content := &RawCardContent{
		Identity:       params.Identity,
		PreviousCardID: params.PreviousCardID,
		CreatedAt:      createdAt.Unix(),
		Version:        CardVersion,
		PublicKey:      base64.StdEncoding.EncodeToString(publicKey),
	}

	snapshot, err := content.Snapshot()
	if err != nil {
		return nil, err
	}

	return NewRawSignedModel(snapshot), nil
}

// ParseRawSignedModel turns a RawSignedModel into a Card, importing its
// public key and computing its id
func ParseRawSignedModel(crypto cardcrypto.Crypto, model *RawSignedModel) (*Card, error) {
	if model == nil {
		return nil, ErrNilModel
	}

	content, err := ParseRawCardContent(model.ContentSnapshot)
	if err != nil {
		return nil, err
	}

	publicKeyData, err := base64.StdEncoding.DecodeString(content.PublicKey)
	if err != nil {
		return nil, formatError("decode card public key", err)
	}

	publicKey, err := crypto.ImportPublicKey(publicKeyData)
	if err != nil {
		return nil, fmt.Errorf("failed to import card public key: %w", err)
	}

	signatures := make([]*CardSignature, 0, len(model.Signatures))
	for _, raw := range model.Signatures {
		signature := &CardSignature{
			Signer:    raw.Signer,
			Signature: raw.Signature,
		}
		if raw.Snapshot != nil {
			signature.Snapshot = raw.Snapshot
			signature.ExtraFields = ParseExtraFields(raw.Snapshot)
		} else {
			signature.ExtraFields = NewExtraFields()
		}
		signatures = append(signatures, signature)
	}

	return &Card{
		ID:              GenerateCardID(crypto, model.ContentSnapshot),
		Identity:        content.Identity,
		PublicKey:       publicKey,
		Version:         content.Version,
		CreatedAt:       time.Unix(content.CreatedAt, 0),
		PreviousCardID:  content.PreviousCardID,
		ContentSnapshot: model.ContentSnapshot,
		Signatures:      signatures,
	}, nil
}

// CardToRawSignedModel rebuilds the wire envelope of card
func CardToRawSignedModel(card *Card) (*RawSignedModel, error) {
	if card == nil {
		return nil, ErrNilCard
	}

	model := NewRawSignedModel(card.ContentSnapshot)
	for _, s := range card.Signatures {
		model.Signatures = append(model.Signatures, &RawSignature{
			Signer:    s.Signer,
			Signature: s.Signature,
			Snapshot:  s.Snapshot,
		})
	}
	return model, nil
}

// GenerateCardID returns the card id for a content snapshot
func GenerateCardID(crypto cardcrypto.Crypto, contentSnapshot []byte) string {
	digest := crypto.GenerateSHA512(contentSnapshot)
	if len(digest) > CardIDByteLength {
		digest = digest[:CardIDByteLength]
	}
	return hex.EncodeToString(digest)
}
