package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore is a BlobStore backed by a single directory on local disk.
// References are "<uuid><ext>" so they never collide and never escape the
// directory regardless of the suggested name.
type LocalStore struct {
	dir string
}

var _ BlobStore = (*LocalStore)(nil)

// NewLocalStore creates the upload directory if needed and returns a store
// rooted at it
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Store writes the blob under a fresh UUID-based file name
func (s *LocalStore) Store(_ context.Context, data []byte, suggestedName string) (string, error) {
	reference := uuid.New().String() + sanitizeExtension(suggestedName)
	if err := os.WriteFile(filepath.Join(s.dir, reference), data, 0o640); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	return reference, nil
}

// Retrieve reads the blob for a reference
func (s *LocalStore) Retrieve(_ context.Context, reference string) ([]byte, error) {
	path, err := s.resolve(reference)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
}

// Delete removes the blob for a reference
func (s *LocalStore) Delete(_ context.Context, reference string) error {
	path, err := s.resolve(reference)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// resolve maps a reference to its on-disk path, rejecting anything that is
// not a bare file name.
func (s *LocalStore) resolve(reference string) (string, error) {
	if reference == "" || reference != filepath.Base(reference) || strings.ContainsAny(reference, `/\`) {
		return "", ErrNotFound
	}
	return filepath.Join(s.dir, reference), nil
}

// sanitizeExtension keeps a short, alphanumeric extension from the suggested
// name, or nothing.
func sanitizeExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
