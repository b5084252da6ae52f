package cardcrypto

import "errors"

var (
	// ErrEmptyKeyData is returned when key bytes are empty.
	ErrEmptyKeyData = errors.New("key data is empty")

	// ErrUnsupportedKeyType is returned when a key was not produced by this provider.
	ErrUnsupportedKeyType = errors.New("unsupported key type")

	// ErrNilKey is returned when a required key is nil.
	ErrNilKey = errors.New("key cannot be nil")
)
