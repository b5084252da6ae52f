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

package auth

import (
	"fmt"

	"github.com/sage-x-project/virgil-cards-go/pkg/cardcrypto"
)

// JwtVerifierParams configures a JwtVerifier
type JwtVerifierParams struct {
	AccessTokenSigner cardcrypto.AccessTokenSigner

	// APIPublicKey is the public half of the key tokens are signed with
	APIPublicKey cardcrypto.PublicKey

	// APIKeyID must match the kid header
	APIKeyID string
}

// JwtVerifier checks tokens issued by a JwtGenerator
type JwtVerifier struct {
	method       *signingMethod
	apiPublicKey cardcrypto.PublicKey
	apiKeyID     string
}

// NewJwtVerifier creates a new JwtVerifier
func NewJwtVerifier(params JwtVerifierParams) (*JwtVerifier, error) {
	switch {
	case params.AccessTokenSigner == nil:
		return nil, fmt.Errorf("%w: access token signer", ErrMissingParams)
	case params.APIPublicKey == nil:
		return nil, fmt.Errorf("%w: api public key", ErrMissingParams)
	case params.APIKeyID == "":
		return nil, fmt.Errorf("%w: api key id", ErrMissingParams)
	}

	return &JwtVerifier{
		method:       newSigningMethod(params.AccessTokenSigner),
		apiPublicKey: params.APIPublicKey,
		apiKeyID:     params.APIKeyID,
	}, nil
}

// VerifyToken checks the header fields, then the signature over the
// token's unsigned data. Expiry is not checked.
func (v *JwtVerifier) VerifyToken(token *Jwt) error {
	if token == nil {
		return fmt.Errorf("%w: token is nil", ErrInvalidSignature)
	}

	header := token.Header()
	switch {
	case header.APIKeyID != v.apiKeyID:
		return fmt.Errorf("%w: kid %q", ErrHeaderMismatch, header.APIKeyID)
	case header.Algorithm != v.method.Alg():
		return fmt.Errorf("%w: alg %q", ErrHeaderMismatch, header.Algorithm)
	case header.ContentType != JwtContentType:
		return fmt.Errorf("%w: cty %q", ErrHeaderMismatch, header.ContentType)
	case header.Type != JwtType:
		return fmt.Errorf("%w: typ %q", ErrHeaderMismatch, header.Type)
	}

	return v.method.Verify(string(token.UnsignedData()), token.Signature(), v.apiPublicKey)
}
