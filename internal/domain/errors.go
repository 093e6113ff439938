package domain

import "errors"

// Composition errors. The first four indicate bad caller input; the last
// indicates operator misconfiguration and is reported as a server-side
// failure.
var (
	ErrMissingChannel    = errors.New("channel name required")
	ErrMissingSubject    = errors.New("subject id required")
	ErrInvalidRole       = errors.New("invalid role")
	ErrInvalidTokenType  = errors.New("invalid token type")
	ErrMissingCredential = errors.New("signing credential not configured")
)
