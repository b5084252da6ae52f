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
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces the keys written by RedisStorage
const DefaultRedisPrefix = "virgil:keys:"

// RedisStorage keeps entries as Redis string values under a key prefix
type RedisStorage struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStorage creates a RedisStorage over client. An empty prefix
// selects DefaultRedisPrefix.
func NewRedisStorage(client redis.Cmdable, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStorage{client: client, prefix: prefix}
}

// NewRedisStorageFromURL connects to the server named by a redis:// URL
func NewRedisStorageFromURL(ctx context.Context, url string) (*RedisStorage, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisStorage(client, ""), nil
}

// Store implements KeyValueStorage with SETNX
func (s *RedisStorage) Store(ctx context.Context, name string, value []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, s.prefix+name, value, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to store entry: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}
	return nil
}

// Load implements KeyValueStorage
func (s *RedisStorage) Load(ctx context.Context, name string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.prefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load entry: %w", err)
	}
	return value, nil
}

// Exists implements KeyValueStorage
func (s *RedisStorage) Exists(ctx context.Context, name string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+name).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check entry: %w", err)
	}
	return n > 0, nil
}

// Delete implements KeyValueStorage
func (s *RedisStorage) Delete(ctx context.Context, name string) error {
	n, err := s.client.Del(ctx, s.prefix+name).Result()
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// List implements KeyValueStorage with SCAN
func (s *RedisStorage) List(ctx context.Context) ([]string, error) {
	names := []string{}
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		names = append(names, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	sort.Strings(names)
	return names, nil
}
