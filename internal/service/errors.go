package service

import "errors"

var (
	// ErrNotFound covers missing, deleted and purged records alike, so a
	// caller can't tell whether something ever existed.
	ErrNotFound = errors.New("service: not found")

	// ErrExpired means the record resolves but is past its expiry.
	// Deliberately distinct from ErrNotFound: "expired" and "never
	// existed" get different user-facing messages.
	ErrExpired = errors.New("service: expired")

	// ErrAuth means the caller presented no credential or an invalid one.
	ErrAuth = errors.New("service: unauthenticated")

	// ErrForbidden means a valid credential lacks the required permission.
	ErrForbidden = errors.New("service: forbidden")

	// ErrValidation means the input was rejected before any mutation.
	ErrValidation = errors.New("service: invalid input")
)
