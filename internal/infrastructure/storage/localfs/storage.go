// Package localfs stores uploaded source documents on the local disk.
// Keys map to flat file names under one base directory.
package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/uploads"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create document dir %s: %w", basePath, err)
	}
	return &Storage{basePath: basePath}, nil
}

// keyPath flattens the key so a crafted name cannot escape the base dir.
func (s *Storage) keyPath(key string) string {
	return filepath.Join(s.basePath, filepath.Base(key))
}

func (s *Storage) Save(_ context.Context, key string, data io.Reader) error {
	f, err := os.Create(s.keyPath(key))
	if err != nil {
		return fmt.Errorf("store document %s: %w", key, err)
	}
	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		return fmt.Errorf("write document %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("flush document %s: %w", key, err)
	}
	return nil
}

func (s *Storage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.keyPath(key))
	if err != nil {
		return nil, fmt.Errorf("open document %s: %w", key, err)
	}
	return f, nil
}
