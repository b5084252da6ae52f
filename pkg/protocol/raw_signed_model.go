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
	"encoding/json"
)

// RawSignature is one signer entry of a RawSignedModel
type RawSignature struct {
	// Signer is "self", "virgil" or any custom signer id
	Signer string `json:"signer"`

	// Signature is computed over the content snapshot, followed by Snapshot when present
	Signature []byte `json:"signature"`

	// Snapshot is the canonical form of the signer's extra fields.
	// A nil Snapshot is omitted from JSON; a present but empty one
	// round-trips as "".
	Snapshot []byte `json:"snapshot,omitempty"`
}

// rawSignatureJSON tracks whether "snapshot" was present on the wire
type rawSignatureJSON struct {
	Signer    string  `json:"signer"`
	Signature []byte  `json:"signature"`
	Snapshot  *[]byte `json:"snapshot,omitempty"`
}

func (s *RawSignature) MarshalJSON() ([]byte, error) {
	out := rawSignatureJSON{Signer: s.Signer, Signature: s.Signature}
	if s.Snapshot != nil {
		out.Snapshot = &s.Snapshot
	}
	return json.Marshal(&out)
}

func (s *RawSignature) UnmarshalJSON(data []byte) error {
	var in rawSignatureJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	s.Signer = in.Signer
	s.Signature = in.Signature
	s.Snapshot = nil
	if in.Snapshot != nil {
		s.Snapshot = *in.Snapshot
		if s.Snapshot == nil {
			s.Snapshot = []byte{}
		}
	}
	return nil
}

// RawSignedModel is the wire envelope of a card: the content snapshot plus
// an ordered list of signatures. Byte fields travel as standard base64.
type RawSignedModel struct {
	ContentSnapshot []byte          `json:"content_snapshot"`
	Signatures      []*RawSignature `json:"signatures"`
}

// NewRawSignedModel creates an unsigned model around contentSnapshot
func NewRawSignedModel(contentSnapshot []byte) *RawSignedModel {
	return &RawSignedModel{
		ContentSnapshot: contentSnapshot,
		Signatures:      []*RawSignature{},
	}
}

// RawSignedModelFromString decodes the base64 transfer form of a model
func RawSignedModelFromString(str string) (*RawSignedModel, error) {
	data, err := base64.StdEncoding.DecodeString(str)
	if err != nil {
		return nil, formatError("decode raw signed model base64", err)
	}
	return RawSignedModelFromJSON(data)
}

// RawSignedModelFromJSON decodes the JSON form of a model
func RawSignedModelFromJSON(data []byte) (*RawSignedModel, error) {
	var model RawSignedModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, formatError("unmarshal raw signed model", err)
	}

	if len(model.ContentSnapshot) == 0 {
		return nil, formatError("unmarshal raw signed model", ErrMissingContentSnapshot)
	}

	if model.Signatures == nil {
		model.Signatures = []*RawSignature{}
	}

	return &model, nil
}

// ExportAsJSON returns the JSON form of the model
func (m *RawSignedModel) ExportAsJSON() ([]byte, error) {
	if m == nil {
		return nil, ErrNilModel
	}

	out := *m
	if out.Signatures == nil {
		out.Signatures = []*RawSignature{}
	}
	return json.Marshal(&out)
}

// ExportAsString returns the base64 transfer form of the model
func (m *RawSignedModel) ExportAsString() (string, error) {
	data, err := m.ExportAsJSON()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// HasSigner reports whether a signature from signer is already present
func (m *RawSignedModel) HasSigner(signer string) bool {
	for _, s := range m.Signatures {
		if s.Signer == signer {
			return true
		}
	}
	return false
}
