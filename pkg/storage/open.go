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
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	sagestorage "github.com/sage-x-project/sage/pkg/agent/crypto/storage"

	"github.com/sage-x-project/virgil-cards-go/pkg/cardcrypto"
)

// metaDir holds key metadata under a file: key store
const metaDir = "meta"

// Open returns the KeyValueStorage named by location:
//
//	memory                   in-process map
//	file:<dir>               one file per entry under dir
//	redis://... rediss://... Redis server
//	postgres://...           PostgreSQL table
func Open(ctx context.Context, location string) (KeyValueStorage, error) {
	switch {
	case location == "" || location == "memory":
		return NewMemoryStorage(), nil
	case strings.HasPrefix(location, "file:"):
		return NewFileStorage(strings.TrimPrefix(location, "file:"))
	case strings.HasPrefix(location, "redis://"), strings.HasPrefix(location, "rediss://"):
		return NewRedisStorageFromURL(ctx, location)
	case strings.HasPrefix(location, "postgres://"), strings.HasPrefix(location, "postgresql://"):
		return NewPostgresStorage(ctx, location)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStore, location)
	}
}

// OpenPrivateKeyStorage returns the PrivateKeyStorage named by location.
// The memory and file: locations keep key pairs in SAGE key storage (JWK
// files under dir) with metadata in a KeyValueStorage beside them; redis and
// postgres store exported keys through Open.
func OpenPrivateKeyStorage(ctx context.Context, crypto cardcrypto.Crypto, location string) (*PrivateKeyStorage, error) {
	switch {
	case location == "" || location == "memory":
		return NewSagePrivateKeyStorage(sagestorage.NewMemoryKeyStorage(), NewMemoryStorage()), nil
	case strings.HasPrefix(location, "file:"):
		dir := strings.TrimPrefix(location, "file:")
		if dir == "" {
			return nil, errors.New("storage directory is empty")
		}

		keyPairs, err := sagestorage.NewFileKeyStorage(dir)
		if err != nil {
			return nil, err
		}
		meta, err := NewFileStorage(filepath.Join(dir, metaDir))
		if err != nil {
			return nil, err
		}
		return NewSagePrivateKeyStorage(keyPairs, meta), nil
	default:
		kv, err := Open(ctx, location)
		if err != nil {
			return nil, err
		}
		return NewPrivateKeyStorage(crypto, kv), nil
	}
}
