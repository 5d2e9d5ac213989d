// Package blob keeps raw document bytes on the local filesystem.
package blob

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/psxom3/genai-regwatch/internal/ports"
)

// LocalStore writes files under a single root directory.
type LocalStore struct {
	root string
}

var _ ports.BlobStore = (*LocalStore)(nil)

// NewLocalStore creates root if it does not exist.
func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, errors.New("blob root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &LocalStore{root: root}, nil
}

// Save writes content as name under the root and returns its path.
// Saving the same name twice overwrites the earlier file.
func (s *LocalStore) Save(name string, content []byte) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid blob name %q", name)
	}

	path := filepath.Join(s.root, name)
	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("store blob: %w", err)
	}
	return path, nil
}

// Read returns the bytes stored at ref.
func (s *LocalStore) Read(ref string) ([]byte, error) {
	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}
