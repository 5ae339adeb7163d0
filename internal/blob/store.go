// Package blob stores uploaded files (receipts, QR codes, backgrounds) in an
// S3-compatible bucket.
package blob

import (
	"context"
	"io"
)

// DefaultContentType is used when an object carries no content type.
const DefaultContentType = "application/octet-stream"

// Object is a stored blob. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Store reads and writes blobs by key. Get returns shared.ErrNotFound for
// missing keys.
type Store interface {
	Get(ctx context.Context, key string) (Object, error)
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
}
