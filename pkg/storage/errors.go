package storage

import "errors"

var (
	// ErrNotFound is returned when no entry exists under a name
	ErrNotFound = errors.New("entry not found")

	// ErrAlreadyExists is returned when storing under a name that is taken
	ErrAlreadyExists = errors.New("entry already exists")

	// ErrInvalidName is returned for names outside the allowed character set
	ErrInvalidName = errors.New("invalid entry name")

	// ErrUnsupportedStore is returned by Open for an unknown store location
	ErrUnsupportedStore = errors.New("unsupported key store")
)
