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

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	sagecrypto "github.com/sage-x-project/sage/pkg/agent/crypto"

	"github.com/sage-x-project/virgil-cards-go/pkg/cardcrypto"
)

// privateKeyEntry is the stored form of a private key
type privateKeyEntry struct {
	// Value is the exported (PKCS#8) key, base64 in JSON
	Value []byte            `json:"value"`
	Meta  map[string]string `json:"meta,omitempty"`
}

// PrivateKeyStorage saves private keys with optional metadata.
//
// Keys either live as exported entries in a KeyValueStorage, or as SAGE key
// pairs in a sagecrypto.KeyStorage with the metadata kept in the
// KeyValueStorage beside them.
type PrivateKeyStorage struct {
	crypto  cardcrypto.Crypto
	storage KeyValueStorage

	keyPairs sagecrypto.KeyStorage
	// serializes the exists check and write, sagecrypto.KeyStorage overwrites
	mu sync.Mutex
}

// NewPrivateKeyStorage creates a PrivateKeyStorage
func NewPrivateKeyStorage(crypto cardcrypto.Crypto, storage KeyValueStorage) *PrivateKeyStorage {
	return &PrivateKeyStorage{crypto: crypto, storage: storage}
}

// NewSagePrivateKeyStorage creates a PrivateKeyStorage keeping key pairs in
// keyPairs and their metadata in meta
func NewSagePrivateKeyStorage(keyPairs sagecrypto.KeyStorage, meta KeyValueStorage) *PrivateKeyStorage {
	return &PrivateKeyStorage{storage: meta, keyPairs: keyPairs}
}

// Store exports key and saves it under name. A taken name fails with ErrAlreadyExists.
func (s *PrivateKeyStorage) Store(ctx context.Context, name string, key cardcrypto.PrivateKey, meta map[string]string) error {
	if key == nil {
		return errors.New("private key is nil")
	}
	if err := ValidateName(name); err != nil {
		return err
	}

	if s.keyPairs != nil {
		return s.storeKeyPair(ctx, name, key, meta)
	}

	exists, err := s.storage.Exists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}

	exported, err := s.crypto.ExportPrivateKey(key)
	if err != nil {
		return fmt.Errorf("failed to export private key: %w", err)
	}

	data, err := json.Marshal(&privateKeyEntry{Value: exported, Meta: meta})
	if err != nil {
		return fmt.Errorf("failed to marshal private key entry: %w", err)
	}

	return s.storage.Store(ctx, name, data)
}

// storeKeyPair writes the metadata first, so a name only exists once both
// halves are saved
func (s *PrivateKeyStorage) storeKeyPair(ctx context.Context, name string, key cardcrypto.PrivateKey, meta map[string]string) error {
	keyPair, err := cardcrypto.SageKeyPair(key)
	if err != nil {
		return fmt.Errorf("failed to export private key: %w", err)
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal private key metadata: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keyPairs.Exists(name) {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}

	// metadata left behind by an interrupted store
	if err := s.storage.Delete(ctx, name); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if err := s.storage.Store(ctx, name, data); err != nil {
		return err
	}

	if err := s.keyPairs.Store(name, keyPair); err != nil {
		_ = s.storage.Delete(ctx, name)
		return fmt.Errorf("failed to store key pair: %w", err)
	}
	return nil
}

// Load returns the private key and metadata saved under name
func (s *PrivateKeyStorage) Load(ctx context.Context, name string) (cardcrypto.PrivateKey, map[string]string, error) {
	if s.keyPairs != nil {
		return s.loadKeyPair(ctx, name)
	}

	data, err := s.storage.Load(ctx, name)
	if err != nil {
		return nil, nil, err
	}

	var entry privateKeyEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal private key entry: %w", err)
	}

	key, err := s.crypto.ImportPrivateKey(entry.Value)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to import private key: %w", err)
	}

	if entry.Meta == nil {
		entry.Meta = map[string]string{}
	}
	return key, entry.Meta, nil
}

func (s *PrivateKeyStorage) loadKeyPair(ctx context.Context, name string) (cardcrypto.PrivateKey, map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("context error: %w", err)
	}

	keyPair, err := s.keyPairs.Load(name)
	if errors.Is(err, sagecrypto.ErrKeyNotFound) {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load key pair: %w", err)
	}

	key, err := cardcrypto.PrivateKeyFromSage(keyPair)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to import private key: %w", err)
	}

	meta := map[string]string{}
	data, err := s.storage.Load(ctx, name)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return nil, nil, err
	default:
		if err := json.Unmarshal(data, &meta); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal private key metadata: %w", err)
		}
		if meta == nil {
			meta = map[string]string{}
		}
	}

	return key, meta, nil
}

// Exists reports whether a key is saved under name
func (s *PrivateKeyStorage) Exists(ctx context.Context, name string) (bool, error) {
	if s.keyPairs != nil {
		return s.keyPairs.Exists(name), nil
	}
	return s.storage.Exists(ctx, name)
}

// Delete removes the key saved under name
func (s *PrivateKeyStorage) Delete(ctx context.Context, name string) error {
	if s.keyPairs == nil {
		return s.storage.Delete(ctx, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.keyPairs.Delete(name)
	if errors.Is(err, sagecrypto.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("failed to delete key pair: %w", err)
	}

	if err := s.storage.Delete(ctx, name); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// List returns the names of all saved keys
func (s *PrivateKeyStorage) List(ctx context.Context) ([]string, error) {
	if s.keyPairs == nil {
		return s.storage.List(ctx)
	}

	names, err := s.keyPairs.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list key pairs: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Close releases the underlying KeyValueStorage when it holds connections
func (s *PrivateKeyStorage) Close() error {
	if closer, ok := s.storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
