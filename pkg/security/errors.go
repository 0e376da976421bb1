package security

import "errors"

var (
	// ErrCrypto covers every authenticated-encryption failure: malformed
	// keys, truncated blobs, wrong keys and tampered ciphertext. Callers
	// match it with errors.Is; the wrapped message carries the specifics.
	ErrCrypto = errors.New("security: crypto failure")
)
