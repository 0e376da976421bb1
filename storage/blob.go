// Package storage holds the encrypted object store and its blob backends.
// Plaintext never reaches a backend: the Store encrypts before Write and
// decrypts after Read.
package storage

import (
	"fmt"
	"io"

	"github.com/spf13/viper"
)

// BlobStore is the durable byte sink behind the encrypted store. Write must
// be all-or-nothing: a failed write leaves no partial artifact behind.
// Delete of a missing name is not an error.
type BlobStore interface {
	Write(name string, r io.Reader) (int64, error)
	Read(name string) (io.ReadCloser, error)
	Delete(name string) error
	Exists(name string) (bool, error)
}

// NewBlobStore picks the backend configured under storage.type.
func NewBlobStore() (BlobStore, error) {
	switch t := viper.GetString("storage.type"); t {
	case "local":
		return NewLocal(viper.GetString("storage.path"))
	case "s3":
		return NewS3()
	default:
		return nil, fmt.Errorf("invalid storage type %q", t)
	}
}
