package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no blob exists for a reference
var ErrNotFound = errors.New("blob not found")

// BlobStore persists opaque byte blobs addressed by generated references.
// References are store-generated and safe to embed in database records;
// callers never choose them.
type BlobStore interface {
	// Store writes the blob and returns its reference. The suggested name
	// only influences the reference's extension, never its uniqueness.
	Store(ctx context.Context, data []byte, suggestedName string) (string, error)

	// Retrieve reads the blob for a reference. Returns ErrNotFound if the
	// reference is unknown.
	Retrieve(ctx context.Context, reference string) ([]byte, error)

	// Delete removes the blob. Deleting an unknown reference returns
	// ErrNotFound.
	Delete(ctx context.Context, reference string) error
}
