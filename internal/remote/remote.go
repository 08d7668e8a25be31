// Package remote defines the contract for the shared journal blob and a
// directory-backed implementation of it. The app exchanges one named JSON
// document with the remote; everything smarter than read/write (merging,
// conflict policy) lives in the reconcile package.
package remote

import (
	"context"
	"errors"
)

// ErrNotFound reports that no blob with the requested name exists yet.
var ErrNotFound = errors.New("remote: blob not found")

// Handle identifies an existing blob. Its contents are backend-specific
// and opaque to callers.
type Handle string

// Store is the minimal surface the sync engine needs from a remote.
type Store interface {
	// Find resolves a blob by name. Returns ErrNotFound when absent.
	Find(ctx context.Context, name string) (Handle, error)

	// Create writes a new blob and returns its handle. Fails if the
	// name is already taken.
	Create(ctx context.Context, name string, data []byte) (Handle, error)

	// Update overwrites an existing blob.
	Update(ctx context.Context, h Handle, data []byte) error

	// Read returns the blob's current contents.
	Read(ctx context.Context, h Handle) ([]byte, error)
}
