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

package signer

import (
	"errors"
	"fmt"

	"github.com/sage-x-project/virgil-cards-go/pkg/cardcrypto"
	"github.com/sage-x-project/virgil-cards-go/pkg/protocol"
)

var (
	// ErrNilModel is returned when there is no model to sign
	ErrNilModel = errors.New("model cannot be nil")

	// ErrNilPrivateKey is returned when no signer key is given
	ErrNilPrivateKey = errors.New("signer private key cannot be nil")

	// ErrDuplicateSigner is returned when the model already carries a signature from the signer
	ErrDuplicateSigner = errors.New("model already has a signature for this signer")
)

// Signer adds signatures to raw cards
type Signer interface {
	// Sign appends a signature to params.Model in place
	Sign(params SignParams) error
}

// SignParams contains the input of a single signing operation
type SignParams struct {
	// Model is the raw card to sign
	Model *protocol.RawSignedModel

	// SignerPrivateKey signs the content snapshot
	SignerPrivateKey cardcrypto.PrivateKey

	// Signer is the signer id. If empty, protocol.SelfSigner is used
	Signer string

	// ExtraFields are signed together with the content snapshot.
	// If nil, the signature has no snapshot.
	ExtraFields *protocol.ExtraFields
}

// ModelSigner implements Signer with a Crypto provider
type ModelSigner struct {
	crypto cardcrypto.Crypto
}

// NewModelSigner creates a new ModelSigner
func NewModelSigner(crypto cardcrypto.Crypto) *ModelSigner {
	return &ModelSigner{
		crypto: crypto,
	}
}

// Sign signs contentSnapshot followed by the extra fields snapshot and
// appends the signature to the model. The model is left unchanged on error.
func (s *ModelSigner) Sign(params SignParams) error {
	if params.Model == nil {
		return ErrNilModel
	}

	if params.SignerPrivateKey == nil {
		return ErrNilPrivateKey
	}

	signer := params.Signer
	if signer == "" {
		signer = protocol.SelfSigner
	}

	if params.Model.HasSigner(signer) {
		return fmt.Errorf("%w: %q", ErrDuplicateSigner, signer)
	}

	var snapshot []byte
	if params.ExtraFields != nil {
		var err error
		snapshot, err = params.ExtraFields.Snapshot()
		if err != nil {
			return fmt.Errorf("failed to serialize extra fields: %w", err)
		}
	}

	signature, err := s.crypto.GenerateSignature(SignedPayload(params.Model.ContentSnapshot, snapshot), params.SignerPrivateKey)
	if err != nil {
		return fmt.Errorf("failed to sign model: %w", err)
	}

	params.Model.Signatures = append(params.Model.Signatures, &protocol.RawSignature{
		Signer:    signer,
		Signature: signature,
		Snapshot:  snapshot,
	})

	return nil
}

// SignedPayload returns the bytes a signature covers: the content snapshot
// immediately followed by the extra snapshot, with no separator.
func SignedPayload(contentSnapshot, snapshot []byte) []byte {
	payload := make([]byte, 0, len(contentSnapshot)+len(snapshot))
	payload = append(payload, contentSnapshot...)
	return append(payload, snapshot...)
}
