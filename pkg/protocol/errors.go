package protocol

import (
	"errors"
	"fmt"
)

// ErrFormat matches every FormatError with errors.Is
var ErrFormat = errors.New("format error")

var (
	// ErrMissingContentSnapshot is returned when a raw card has no content snapshot.
	ErrMissingContentSnapshot = errors.New("content_snapshot is required")

	// ErrIdentityRequired is returned when card parameters have no identity.
	ErrIdentityRequired = errors.New("identity is required")

	// ErrPublicKeyRequired is returned when card parameters have no public key.
	ErrPublicKeyRequired = errors.New("public key is required")

	// ErrNilModel is returned when a raw signed model is nil.
	ErrNilModel = errors.New("raw signed model cannot be nil")

	// ErrNilCard is returned when a card is nil.
	ErrNilCard = errors.New("card cannot be nil")
)

// FormatError reports malformed base64 or JSON input
type FormatError struct {
	Op  string
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format error: %s: %v", e.Op, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrFormat
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func formatError(op string, err error) error {
	return &FormatError{Op: op, Err: err}
}
