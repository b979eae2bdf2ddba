package model

import "errors"

// Sentinel errors shared across services and the HTTP layer. Services wrap
// them with context via fmt.Errorf("...: %w", err); pkg/server maps them to
// status codes. Provider failures keep the provider's message verbatim.
var (
	// ErrUnauthenticated means the caller presented no token or an invalid one.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the caller's identity is valid but its role does not
	// grant the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound means a referenced document (donor, booking, profile) is absent.
	ErrNotFound = errors.New("not found")

	// ErrValidation means the request failed a precondition check before any
	// write took place.
	ErrValidation = errors.New("validation failed")

	// ErrExhausted means all booking numbers for the date are consumed.
	ErrExhausted = errors.New("booking numbers exhausted")

	// ErrProvider is an opaque failure from an external provider
	// (store, uploader, identity).
	ErrProvider = errors.New("provider error")
)
