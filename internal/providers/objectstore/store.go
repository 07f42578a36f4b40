// Package objectstore abstracts the bulk-upload object storage.
package objectstore

import (
	"context"
	"io"
)

// Store issues presigned upload URLs and fetches uploaded objects.
type Store interface {
	PresignPut(ctx context.Context, key, contentType string) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	ObjectURL(key string) string
}
