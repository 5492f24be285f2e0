// Package blob stores opaque byte payloads keyed by generated IDs, with a
// backend selected once at startup from configuration.
package blob

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("blob not found")

// Store is the capability surface shared by the local filesystem and S3
// backends.
type Store interface {
	// Save writes the payload under id, replacing any previous content.
	Save(ctx context.Context, id string, r io.Reader) error
	// Open returns the payload stream and its size. ErrNotFound when absent.
	Open(ctx context.Context, id string) (io.ReadCloser, int64, error)
	// Delete removes the payload, ErrNotFound when absent. Cleanup paths
	// are expected to tolerate ErrNotFound.
	Delete(ctx context.Context, id string) error
	// List returns all stored IDs, used by the reconciliation sweep.
	List(ctx context.Context) ([]string, error)
}
