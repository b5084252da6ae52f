package auth

import "errors"

var (
	// ErrInvalidIdentity is returned when the token subject lacks the identity prefix
	ErrInvalidIdentity = errors.New("jwt subject is not an identity")

	// ErrInvalidAppID is returned when the token issuer lacks the application prefix
	ErrInvalidAppID = errors.New("jwt issuer is not an application id")

	// ErrHeaderMismatch is returned when a token header does not match the verifier
	ErrHeaderMismatch = errors.New("jwt header mismatch")

	// ErrInvalidSignature is returned when a token signature does not verify
	ErrInvalidSignature = errors.New("jwt signature is invalid")

	// ErrMissingParams is returned when a required constructor parameter is missing
	ErrMissingParams = errors.New("missing required parameter")

	// ErrNoRenewal is returned when a caching provider has no way to obtain a token
	ErrNoRenewal = errors.New("no token renewal callback configured")
)
