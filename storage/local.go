package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local stores file contents as plain files under one directory. Keys
// are generated server side and never contain path separators, so they
// can't escape it.
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory, %w", err)
	}

	return &Local{dir: dir}, nil
}

func (l *Local) Save(key string, r io.Reader, size int64, contentType string) error {
	f, err := os.Create(filepath.Join(l.dir, key))
	if err != nil {
		return fmt.Errorf("failed to create file, %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("failed to write file, %w", err)
	}

	return nil
}

func (l *Local) Open(key string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(l.dir, key))
}

func (l *Local) Delete(key string) error {
	return os.Remove(filepath.Join(l.dir, key))
}
