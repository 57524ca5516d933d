// Package storage defines the blob store used for file payloads and
// thumbnails. Blob names are chosen by the caller and carry no meaning to the
// store.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when no blob has the requested name.
var ErrNotFound = errors.New("blob not found")

// BlobStore persists opaque byte payloads under caller-chosen names.
type BlobStore interface {
	// Write stores data under name, replacing any previous blob.
	Write(ctx context.Context, name string, data []byte) error
	// Read returns the blob stored under name or ErrNotFound.
	Read(ctx context.Context, name string) ([]byte, error)
	// Exists reports whether a blob is stored under name.
	Exists(ctx context.Context, name string) (bool, error)
}
