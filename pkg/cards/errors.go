package cards

import (
	"errors"
	"fmt"
)

var (
	// ErrCardVerification is matched by every *VerificationError
	ErrCardVerification = errors.New("card verification failed")

	// ErrMissingCrypto is returned by NewCardManager without a Crypto
	ErrMissingCrypto = errors.New("crypto is required")

	// ErrMissingAccessTokenProvider is returned by NewCardManager without a token provider
	ErrMissingAccessTokenProvider = errors.New("access token provider is required")

	// ErrMissingCardVerifier is returned by NewCardManager without a verifier
	ErrMissingCardVerifier = errors.New("card verifier is required")

	// ErrPrivateKeyRequired is returned when card params carry no private key
	ErrPrivateKeyRequired = errors.New("private key is required")

	// ErrIdentitiesRequired is returned by SearchCards without identities
	ErrIdentitiesRequired = errors.New("at least one identity is required")

	// ErrCardIDRequired is returned by GetCard with an empty id
	ErrCardIDRequired = errors.New("card id is required")
)

// VerificationError reports a card that failed a trust check.
// It is never retried.
type VerificationError struct {
	// CardID is the id of the offending card, if it could be computed
	CardID string

	Reason string
}

func (e *VerificationError) Error() string {
	if e.CardID != "" {
		return fmt.Sprintf("%s: card %s: %s", ErrCardVerification, e.CardID, e.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrCardVerification, e.Reason)
}

// Unwrap makes errors.Is(err, ErrCardVerification) hold
func (e *VerificationError) Unwrap() error {
	return ErrCardVerification
}

// IsVerificationError reports whether err is a card verification failure
func IsVerificationError(err error) bool {
	return errors.Is(err, ErrCardVerification)
}

func verificationError(cardID, format string, args ...any) error {
	return &VerificationError{CardID: cardID, Reason: fmt.Sprintf(format, args...)}
}
