package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local stores blobs as files in a single directory. Writes go through a
// temp file in the same directory followed by a rename, so a crash or a
// full disk never leaves a readable-but-truncated blob under its final name.
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		return nil, errors.New("storage.path can't be empty")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory, %w", err)
	}

	return &Local{dir: dir}, nil
}

func (l *Local) Write(name string, r io.Reader) (int64, error) {
	temp, err := os.CreateTemp(l.dir, "partial-*")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	n, err := io.Copy(temp, r)
	if err != nil {
		temp.Close()
		os.Remove(temp.Name())
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if err := temp.Sync(); err != nil {
		temp.Close()
		os.Remove(temp.Name())
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if err := temp.Close(); err != nil {
		os.Remove(temp.Name())
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if err := os.Rename(temp.Name(), l.path(name)); err != nil {
		os.Remove(temp.Name())
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return n, nil
}

func (l *Local) Read(name string) (io.ReadCloser, error) {
	f, err := os.Open(l.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return f, nil
}

func (l *Local) Delete(name string) error {
	err := os.Remove(l.path(name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return nil
}

func (l *Local) Exists(name string) (bool, error) {
	_, err := os.Stat(l.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return true, nil
}

// path keeps blob names confined to the storage directory. Names are
// server-generated IDs, but Base guards against anything path-like slipping
// through.
func (l *Local) path(name string) string {
	return filepath.Join(l.dir, filepath.Base(name))
}
