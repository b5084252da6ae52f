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
	"fmt"
	"regexp"
	"sort"
	"sync"
)

// MaxNameLength is the longest accepted entry name
const MaxNameLength = 255

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_@-][A-Za-z0-9._@-]*$`)

// KeyValueStorage persists opaque values under names.
// Implementations must be safe for concurrent use.
type KeyValueStorage interface {
	// Store saves value under name. It fails with ErrAlreadyExists when the
	// name is taken; entries are never overwritten.
	Store(ctx context.Context, name string, value []byte) error

	// Load returns the value stored under name or ErrNotFound
	Load(ctx context.Context, name string) ([]byte, error)

	// Exists reports whether name is taken
	Exists(ctx context.Context, name string) (bool, error)

	// Delete removes name or fails with ErrNotFound
	Delete(ctx context.Context, name string) error

	// List returns all names in lexical order
	List(ctx context.Context) ([]string, error)
}

// ValidateName checks that name can be used with every backend: letters,
// digits and "-", "_", ".", "@", not starting with a dot.
func ValidateName(name string) error {
	if len(name) > MaxNameLength || !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// MemoryStorage is a KeyValueStorage kept in process memory
type MemoryStorage struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryStorage creates an empty MemoryStorage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{entries: make(map[string][]byte)}
}

// Store implements KeyValueStorage
func (s *MemoryStorage) Store(ctx context.Context, name string, value []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}
	s.entries[name] = append([]byte(nil), value...)
	return nil
}

// Load implements KeyValueStorage
func (s *MemoryStorage) Load(ctx context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return append([]byte(nil), value...), nil
}

// Exists implements KeyValueStorage
func (s *MemoryStorage) Exists(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.entries[name]
	return ok, nil
}

// Delete implements KeyValueStorage
func (s *MemoryStorage) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(s.entries, name)
	return nil
}

// List implements KeyValueStorage
func (s *MemoryStorage) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
