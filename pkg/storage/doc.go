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

// Package storage persists private keys.
//
// KeyValueStorage is a small write-once store with four backends:
// MemoryStorage, FileStorage, RedisStorage (go-redis) and PostgresStorage
// (sqlx with lib/pq). Open picks one from a location string such as
// "file:/var/lib/virgil" or "redis://localhost:6379/0".
//
// PrivateKeyStorage stores private keys with string metadata on top of any
// backend:
//
//	keys := storage.NewPrivateKeyStorage(crypto, storage.NewMemoryStorage())
//	err := keys.Store(ctx, "alice@example.com", keyPair.PrivateKey, map[string]string{"device": "laptop"})
//
// OpenPrivateKeyStorage backs the memory and file: locations with the SAGE
// key storage instead, so key files are JWK documents readable by other SAGE
// tools. Names stay write-once there as well.
//
// Entry names are limited to letters, digits, "-", "_", "." and "@" so that
// every backend can hold them unchanged.
package storage
