package storage

import "errors"

var (
	// ErrNotFound means the named blob does not exist. Never returned for
	// read failures on a blob that does exist.
	ErrNotFound = errors.New("storage: blob not found")

	// ErrStorage covers every underlying durable-read/write failure (disk
	// full, permissions, backend unavailable). Distinct from ErrNotFound so
	// "can't read" is never conflated with "doesn't exist".
	ErrStorage = errors.New("storage: backend failure")
)
