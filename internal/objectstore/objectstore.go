// Package objectstore abstracts the bucket holding signed waiver PDFs.
// Implementations are interface-driven so handlers and workflows can swap the
// S3 store for an in-memory one in tests.
package objectstore

import (
	"context"
	"errors"
)

// ErrNoObject is returned when the requested path holds nothing.
var ErrNoObject = errors.New("objectstore: no object")

// ErrObjectExists is returned on a non-overwriting Put against an occupied
// path.
var ErrObjectExists = errors.New("objectstore: object already exists")

// Store is the object storage contract of the waiver bucket.
type Store interface {
	// Put stores data at path and returns the stored path. With
	// overwrite=false an occupied path fails with ErrObjectExists.
	Put(ctx context.Context, path string, data []byte, contentType string, overwrite bool) (string, error)
	// Get returns the object bytes at path, ErrNoObject when absent.
	Get(ctx context.Context, path string) ([]byte, error)
	// Delete removes the object at path. Deleting an absent object is not an
	// error; delete is used for compensation and must be idempotent.
	Delete(ctx context.Context, path string) error
}
