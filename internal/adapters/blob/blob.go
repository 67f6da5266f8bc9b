// Package blob stores small JSON documents in a local directory, S3 or GCS.
package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("blob not found")

// Store reads and writes whole objects by key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// Local stores objects as files under a base directory.
type Local struct {
	BaseDir string
}

// NewLocal creates a Local store rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{BaseDir: dir}
}

// path roots key under BaseDir; ".." segments cannot climb out of it.
func (s *Local) path(key string) string {
	return filepath.Join(s.BaseDir, filepath.Clean("/"+key))
}

// Get implements Store.
func (s *Local) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Put implements Store. The write goes to a temp file renamed into place.
func (s *Local) Put(_ context.Context, key string, data []byte) error {
	p := s.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", key, err)
	}
	return os.Rename(tmp.Name(), p)
}
