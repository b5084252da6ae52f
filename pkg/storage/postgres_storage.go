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
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

// DefaultPostgresTable is the table PostgresStorage creates and uses
const DefaultPostgresTable = "virgil_keys"

// PostgresStorage keeps entries in a PostgreSQL table
type PostgresStorage struct {
	db    *sqlx.DB
	table string
}

// NewPostgresStorage connects to dsn and creates the entry table if needed
func NewPostgresStorage(ctx context.Context, dsn string) (*PostgresStorage, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	s, err := NewPostgresStorageFromDB(ctx, db, DefaultPostgresTable)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStorageFromDB uses an existing connection pool. table must be
// a trusted identifier.
func NewPostgresStorageFromDB(ctx context.Context, db *sqlx.DB, table string) (*PostgresStorage, error) {
	if table == "" {
		table = DefaultPostgresTable
	}

	migration := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	name TEXT PRIMARY KEY,
	value BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, table)
	if _, err := db.ExecContext(ctx, migration); err != nil {
		return nil, fmt.Errorf("failed to create key table: %w", err)
	}

	return &PostgresStorage{db: db, table: table}, nil
}

// Close closes the connection pool
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

// Store implements KeyValueStorage
func (s *PostgresStorage) Store(ctx context.Context, name string, value []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	query := fmt.Sprintf(`INSERT INTO %s (name, value) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`, s.table)
	result, err := s.db.ExecContext(ctx, query, name, value)
	if err != nil {
		return fmt.Errorf("failed to store entry: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to store entry: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}
	return nil
}

// Load implements KeyValueStorage
func (s *PostgresStorage) Load(ctx context.Context, name string) ([]byte, error) {
	var value []byte
	query := fmt.Sprintf(`SELECT value FROM %s WHERE name = $1`, s.table)
	err := s.db.GetContext(ctx, &value, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load entry: %w", err)
	}
	return value, nil
}

// Exists implements KeyValueStorage
func (s *PostgresStorage) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE name = $1)`, s.table)
	if err := s.db.GetContext(ctx, &exists, query, name); err != nil {
		return false, fmt.Errorf("failed to check entry: %w", err)
	}
	return exists, nil
}

// Delete implements KeyValueStorage
func (s *PostgresStorage) Delete(ctx context.Context, name string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE name = $1`, s.table)
	result, err := s.db.ExecContext(ctx, query, name)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// List implements KeyValueStorage
func (s *PostgresStorage) List(ctx context.Context) ([]string, error) {
	names := []string{}
	query := fmt.Sprintf(`SELECT name FROM %s ORDER BY name COLLATE "C"`, s.table)
	if err := s.db.SelectContext(ctx, &names, query); err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return names, nil
}
