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
	"time"

	"github.com/sage-x-project/virgil-cards-go/pkg/cardcrypto"
)

// RawCardBuilder helps construct RawCardParams with a fluent API
type RawCardBuilder struct {
	params RawCardParams
}

// NewRawCardBuilder creates a new RawCardBuilder
func NewRawCardBuilder(identity string, publicKey cardcrypto.PublicKey) *RawCardBuilder {
	return &RawCardBuilder{
		params: RawCardParams{
			Identity:  identity,
			PublicKey: publicKey,
		},
	}
}

// WithPreviousCardID marks the card as the replacement of previousCardID
func (b *RawCardBuilder) WithPreviousCardID(previousCardID string) *RawCardBuilder {
	b.params.PreviousCardID = previousCardID
	return b
}

// WithCreatedAt overrides the creation time. Precision is one second.
func (b *RawCardBuilder) WithCreatedAt(createdAt time.Time) *RawCardBuilder {
	b.params.CreatedAt = createdAt
	return b
}

// Build returns the constructed params
func (b *RawCardBuilder) Build() RawCardParams {
	return b.params
}

// Validate performs basic validation on the params
func (p RawCardParams) Validate() error {
	if p.Identity == "" {
		return ErrIdentityRequired
	}
	if p.PublicKey == nil {
		return ErrPublicKeyRequired
	}
	return nil
}
