package storage

import (
	"context"
	"io"
	"time"
)

// BlobStore abstracts the object-storage backend. Folders keep a
// .folder-info marker object under their blob path; files keep their
// content under an owner-scoped key.
type BlobStore interface {
	// Put writes an object. Size may be -1 when unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Remove deletes an object. Removing a missing object is not an error.
	Remove(ctx context.Context, key string) error

	// PresignedGet returns a signed retrieval URL valid for expiry.
	// The backend enforces the expiration; this process does not.
	PresignedGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
