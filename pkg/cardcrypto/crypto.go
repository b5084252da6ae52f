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

import (
	stdcrypto "crypto"
	"crypto/ed25519"
	"crypto/sha512"
	"crypto/x509"
	"fmt"

	sagecrypto "github.com/sage-x-project/sage/pkg/agent/crypto"
	"github.com/sage-x-project/sage/pkg/agent/crypto/keys"
)

// PublicKey is an imported public key handle owned by a Crypto provider
type PublicKey interface {
	// Identifier is a short stable id derived from the exported key bytes
	Identifier() []byte
}

// PrivateKey is an imported private key handle owned by a Crypto provider
type PrivateKey interface {
	Identifier() []byte
}

// KeyPair groups a private key with its public half
type KeyPair struct {
	PrivateKey PrivateKey
	PublicKey  PublicKey
}

// Crypto is the set of primitives the card and token protocols need.
// Implementations must be safe for concurrent use.
type Crypto interface {
	// GenerateKeyPair creates a fresh signing key pair
	GenerateKeyPair() (*KeyPair, error)

	// ImportPublicKey parses exported public key bytes
	ImportPublicKey(data []byte) (PublicKey, error)

	// ExportPublicKey returns the wire representation of a public key
	ExportPublicKey(key PublicKey) ([]byte, error)

	// ImportPrivateKey parses exported private key bytes
	ImportPrivateKey(data []byte) (PrivateKey, error)

	// ExportPrivateKey returns the storage representation of a private key
	ExportPrivateKey(key PrivateKey) ([]byte, error)

	// ExtractPublicKey returns the public half of a private key
	ExtractPublicKey(key PrivateKey) (PublicKey, error)

	// GenerateSignature signs data with the private key
	GenerateSignature(data []byte, key PrivateKey) ([]byte, error)

	// VerifySignature reports whether signature is valid for data under key
	VerifySignature(data, signature []byte, key PublicKey) bool

	// GenerateSHA512 returns the SHA-512 digest of data
	GenerateSHA512(data []byte) []byte
}

const identifierLength = 8

// SageCrypto implements Crypto with Ed25519 keys.
// Key pairs are generated and used for signing through SAGE key pairs;
// keys travel as DER (PKIX public, PKCS#8 private).
type SageCrypto struct{}

// NewSageCrypto creates a new SageCrypto
func NewSageCrypto() *SageCrypto {
	return &SageCrypto{}
}

type ed25519PublicKey struct {
	key        ed25519.PublicKey
	der        []byte
	identifier []byte
}

func (k *ed25519PublicKey) Identifier() []byte {
	return k.identifier
}

type ed25519PrivateKey struct {
	keyPair   sagecrypto.KeyPair
	key       ed25519.PrivateKey
	publicKey *ed25519PublicKey
}

func (k *ed25519PrivateKey) Identifier() []byte {
	return k.publicKey.identifier
}

// GenerateKeyPair creates a new Ed25519 key pair
func (c *SageCrypto) GenerateKeyPair() (*KeyPair, error) {
	keyPair, err := keys.GenerateEd25519KeyPair()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}

	privateKey, err := newPrivateKey(keyPair)
	if err != nil {
		return nil, err
	}

	return &KeyPair{
		PrivateKey: privateKey,
		PublicKey:  privateKey.publicKey,
	}, nil
}

// ImportPublicKey parses a DER encoded PKIX Ed25519 public key
func (c *SageCrypto) ImportPublicKey(data []byte) (PublicKey, error) {
	if len(data) == 0 {
		return nil, ErrEmptyKeyData
	}

	parsed, err := x509.ParsePKIXPublicKey(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	key, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, parsed)
	}

	return newPublicKey(key)
}

// ExportPublicKey returns the DER encoded PKIX form of key
func (c *SageCrypto) ExportPublicKey(key PublicKey) ([]byte, error) {
	pub, ok := key.(*ed25519PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, key)
	}
	out := make([]byte, len(pub.der))
	copy(out, pub.der)
	return out, nil
}

// ImportPrivateKey parses a DER encoded PKCS#8 Ed25519 private key
func (c *SageCrypto) ImportPrivateKey(data []byte) (PrivateKey, error) {
	if len(data) == 0 {
		return nil, ErrEmptyKeyData
	}

	parsed, err := x509.ParsePKCS8PrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	key, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, parsed)
	}

	keyPair, err := keys.NewEd25519KeyPair(key, "")
	if err != nil {
		return nil, fmt.Errorf("failed to create key pair: %w", err)
	}

	return newPrivateKey(keyPair)
}

// ExportPrivateKey returns the DER encoded PKCS#8 form of key
func (c *SageCrypto) ExportPrivateKey(key PrivateKey) ([]byte, error) {
	priv, ok := key.(*ed25519PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, key)
	}

	der, err := x509.MarshalPKCS8PrivateKey(priv.key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	return der, nil
}

// ExtractPublicKey returns the public half of key
func (c *SageCrypto) ExtractPublicKey(key PrivateKey) (PublicKey, error) {
	priv, ok := key.(*ed25519PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, key)
	}
	return priv.publicKey, nil
}

// GenerateSignature signs data with key
func (c *SageCrypto) GenerateSignature(data []byte, key PrivateKey) ([]byte, error) {
	if key == nil {
		return nil, ErrNilKey
	}

	priv, ok := key.(*ed25519PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, key)
	}

	signature, err := priv.keyPair.Sign(data)
	if err != nil {
		return nil, fmt.Errorf("failed to sign data: %w", err)
	}
	return signature, nil
}

// VerifySignature reports whether signature is a valid Ed25519 signature of data
func (c *SageCrypto) VerifySignature(data, signature []byte, key PublicKey) bool {
	pub, ok := key.(*ed25519PublicKey)
	if !ok || pub == nil {
		return false
	}
	return ed25519.Verify(pub.key, data, signature)
}

// GenerateSHA512 returns the SHA-512 digest of data
func (c *SageCrypto) GenerateSHA512(data []byte) []byte {
	sum := sha512.Sum512(data)
	return sum[:]
}

func newPublicKey(key ed25519.PublicKey) (*ed25519PublicKey, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}

	digest := sha512.Sum512(der)
	return &ed25519PublicKey{
		key:        key,
		der:        der,
		identifier: digest[:identifierLength],
	}, nil
}

func newPrivateKey(keyPair sagecrypto.KeyPair) (*ed25519PrivateKey, error) {
	key, err := ed25519PrivateKeyOf(keyPair.PrivateKey())
	if err != nil {
		return nil, err
	}

	pub, err := newPublicKey(key.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}

	return &ed25519PrivateKey{
		keyPair:   keyPair,
		key:       key,
		publicKey: pub,
	}, nil
}

func ed25519PrivateKeyOf(key stdcrypto.PrivateKey) (ed25519.PrivateKey, error) {
	switch k := key.(type) {
	case ed25519.PrivateKey:
		return k, nil
	case *ed25519.PrivateKey:
		return *k, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, key)
	}
}

// SageKeyPair returns the SAGE key pair backing key
func SageKeyPair(key PrivateKey) (sagecrypto.KeyPair, error) {
	priv, ok := key.(*ed25519PrivateKey)
	if !ok || priv == nil {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, key)
	}
	return priv.keyPair, nil
}

// PrivateKeyFromSage wraps a SAGE Ed25519 key pair as a PrivateKey
func PrivateKeyFromSage(keyPair sagecrypto.KeyPair) (PrivateKey, error) {
	if keyPair == nil {
		return nil, ErrNilKey
	}
	if keyPair.Type() != sagecrypto.KeyTypeEd25519 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKeyType, keyPair.Type())
	}
	return newPrivateKey(keyPair)
}

var _ Crypto = (*SageCrypto)(nil)
