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
	"bytes"
	"encoding/json"
	"fmt"
)

// RawCardContent is the signed content of a card. Field order is part of the
// wire format: it fixes the snapshot bytes, hence the card id and signatures.
type RawCardContent struct {
	Identity string `json:"identity"`

	// PreviousCardID is omitted, never null, when the card replaces nothing
	PreviousCardID string `json:"previous_card_id,omitempty"`

	// CreatedAt is a Unix timestamp in seconds
	CreatedAt int64 `json:"created_at"`

	Version string `json:"version"`

	// PublicKey is the base64 exported public key
	PublicKey string `json:"public_key"`
}

// Snapshot returns the canonical bytes of the content
func (c *RawCardContent) Snapshot() ([]byte, error) {
	return marshalSnapshot(c)
}

// ParseRawCardContent decodes a content snapshot. Unknown fields are ignored.
func ParseRawCardContent(snapshot []byte) (*RawCardContent, error) {
	var content RawCardContent
	if err := json.Unmarshal(snapshot, &content); err != nil {
		return nil, formatError("unmarshal card content", err)
	}
	return &content, nil
}

// marshalSnapshot encodes v as compact JSON without HTML escaping, so the
// bytes match what other implementations produce for the same content.
func marshalSnapshot(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
