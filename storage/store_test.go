package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"landrop/share-api/pkg/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	l, err := NewLocal(dir)
	require.NoError(t, err)
	return NewStore(l), dir
}

func TestStore_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	key, err := security.GenerateFileKey()
	require.NoError(t, err)

	plaintext := []byte("hello world")
	require.NoError(t, s.Put(context.Background(), "f1", plaintext, key))

	got, err := s.Get(context.Background(), "f1", key)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestStore_NoPlaintextOnDisk(t *testing.T) {
	s, dir := newTestStore(t)
	key, err := security.GenerateFileKey()
	require.NoError(t, err)

	plaintext := []byte("definitely not stored in the clear")
	require.NoError(t, s.Put(context.Background(), "f1", plaintext, key))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	raw, err := os.ReadFile(dir + "/" + entries[0].Name())
	require.NoError(t, err)
	assert.False(t, bytes.Contains(raw, plaintext), "ciphertext must not contain the plaintext")
}

func TestStore_WrongKey(t *testing.T) {
	s, _ := newTestStore(t)
	k1, err := security.GenerateFileKey()
	require.NoError(t, err)
	k2, err := security.GenerateFileKey()
	require.NoError(t, err)

	require.NoError(t, s.Put(context.Background(), "f1", []byte("data"), k1))

	_, err = s.Get(context.Background(), "f1", k2)
	assert.ErrorIs(t, err, security.ErrCrypto)
}

func TestStore_GetMissing(t *testing.T) {
	s, _ := newTestStore(t)
	key, err := security.GenerateFileKey()
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "ghost", key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_DeleteIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	key, err := security.GenerateFileKey()
	require.NoError(t, err)

	require.NoError(t, s.Put(context.Background(), "f1", []byte("x"), key))
	assert.NoError(t, s.Delete(context.Background(), "f1"))
	assert.NoError(t, s.Delete(context.Background(), "f1"))
}

func TestStore_FailedPutLeavesNoBlob(t *testing.T) {
	fb := &failingBlobStore{}
	s := NewStore(fb)
	key, err := security.GenerateFileKey()
	require.NoError(t, err)

	err = s.Put(context.Background(), "f1", []byte("data"), key)
	assert.ErrorIs(t, err, ErrStorage)
	assert.True(t, fb.deleted, "partial artifact must be cleaned up")
}

// failingBlobStore simulates a backend that fails mid-write (disk full)
type failingBlobStore struct {
	deleted bool
}

func (f *failingBlobStore) Write(name string, r io.Reader) (int64, error) {
	io.Copy(io.Discard, r)
	return 0, ErrStorage
}

func (f *failingBlobStore) Read(name string) (io.ReadCloser, error) {
	return nil, ErrNotFound
}

func (f *failingBlobStore) Delete(name string) error {
	f.deleted = true
	return nil
}

func (f *failingBlobStore) Exists(name string) (bool, error) {
	return false, nil
}
