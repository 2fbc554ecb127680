// Package storage abstracts the object store that receives archived
// query transcripts.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrBucketNotFound is returned by health checks when the configured bucket
// does not exist.
var ErrBucketNotFound = errors.New("bucket not found")

type ObjectInfo struct {
	Key  string
	Size int64
	ETag string
}

type PutOptions struct {
	ContentType string
	// Metadata is stored as user metadata on the object. Keys should be
	// lower-case; S3 returns them canonicalised.
	Metadata map[string]string
}

type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, opts PutOptions) (ObjectInfo, error)
	HealthCheck(ctx context.Context) error
}
