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

package cardcrypto

// AccessTokenAlgorithm is the JWT "alg" header value for tokens signed with
// Ed25519 over a SHA-512 based scheme.
const AccessTokenAlgorithm = "VEDS512"

// AccessTokenSigner signs and verifies access tokens with API keys
type AccessTokenSigner interface {
	// Algorithm returns the JWT "alg" header value
	Algorithm() string

	// GenerateTokenSignature signs the token's unsigned data
	GenerateTokenSignature(data []byte, key PrivateKey) ([]byte, error)

	// VerifyTokenSignature reports whether signature is valid for data under key
	VerifyTokenSignature(data, signature []byte, key PublicKey) bool
}

// CryptoAccessTokenSigner implements AccessTokenSigner on top of a Crypto provider
type CryptoAccessTokenSigner struct {
	crypto Crypto
}

// NewAccessTokenSigner creates an AccessTokenSigner backed by crypto
func NewAccessTokenSigner(crypto Crypto) *CryptoAccessTokenSigner {
	return &CryptoAccessTokenSigner{crypto: crypto}
}

// Algorithm returns AccessTokenAlgorithm
func (s *CryptoAccessTokenSigner) Algorithm() string {
	return AccessTokenAlgorithm
}

// GenerateTokenSignature signs data with key
func (s *CryptoAccessTokenSigner) GenerateTokenSignature(data []byte, key PrivateKey) ([]byte, error) {
	return s.crypto.GenerateSignature(data, key)
}

// VerifyTokenSignature verifies signature over data with key
func (s *CryptoAccessTokenSigner) VerifyTokenSignature(data, signature []byte, key PublicKey) bool {
	return s.crypto.VerifySignature(data, signature, key)
}
