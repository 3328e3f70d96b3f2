package token

import "errors"

// Token-related errors.
var (
	// ErrTokenExpired indicates the token has expired.
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenNotYetValid indicates the token is not yet valid (iat in future).
	ErrTokenNotYetValid = errors.New("token is not yet valid")

	// ErrTokenMalformed indicates the token format is invalid.
	ErrTokenMalformed = errors.New("token is malformed")

	// ErrTokenInvalidSig indicates the token signature is invalid.
	ErrTokenInvalidSig = errors.New("token signature is invalid")

	// ErrMissingSubject indicates a verified token carries no user id.
	ErrMissingSubject = errors.New("token has no subject")
)
