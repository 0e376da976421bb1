package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"landrop/share-api/pkg/security"

	"go.uber.org/zap"
)

// Store is the encrypted object store. It owns the plaintext/ciphertext
// boundary: Put encrypts before anything touches the backend, Get decrypts
// after a full read. Plaintext only ever lives in memory.
type Store struct {
	blobs BlobStore
}

func NewStore(blobs BlobStore) *Store {
	return &Store{blobs: blobs}
}

// Put encrypts plaintext under key and writes it as storedName. A failed
// write removes whatever partial artifact the backend may have left, so no
// orphaned ciphertext survives a failed upload.
func (s *Store) Put(ctx context.Context, storedName string, plaintext, key []byte) error {
	blob, err := security.Encrypt(plaintext, key)
	if err != nil {
		return err
	}

	if _, err := s.blobs.Write(storedName, bytes.NewReader(blob)); err != nil {
		// Backends clean their own temp state; this covers a backend that
		// managed a partial durable write before failing
		if delErr := s.blobs.Delete(storedName); delErr != nil {
			zap.L().Error("Failed to remove partial blob after failed write",
				zap.String("stored_name", storedName), zap.Error(delErr))
		}

		return err
	}

	return nil
}

// Get reads the ciphertext for storedName and decrypts it with key.
// Returns ErrNotFound if the blob is missing, security.ErrCrypto if
// authentication fails and ErrStorage for read failures.
func (s *Store) Get(ctx context.Context, storedName string, key []byte) ([]byte, error) {
	rc, err := s.blobs.Read(storedName)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	blob, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	plaintext, err := security.Decrypt(blob, key)
	if err != nil {
		// Worth a log line on its own: this means corruption or tampering,
		// not a routine miss
		zap.L().Error("Ciphertext failed authentication",
			zap.String("stored_name", storedName), zap.Error(err))
		return nil, err
	}

	return plaintext, nil
}

// Delete removes the ciphertext. Idempotent: deleting a missing blob
// succeeds.
func (s *Store) Delete(ctx context.Context, storedName string) error {
	err := s.blobs.Delete(storedName)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	return nil
}

// Exists reports whether ciphertext is present for storedName.
func (s *Store) Exists(ctx context.Context, storedName string) (bool, error) {
	return s.blobs.Exists(storedName)
}
