package storage

import (
	"context"
	"io"
)

// ObjectStorage defines the object operations the judge archive needs.
// It is intentionally small so MinIO can be swapped for another S3 implementation.
type ObjectStorage interface {
	// EnsureBucket creates the bucket when it does not exist.
	EnsureBucket(ctx context.Context, bucket string) error

	// PutObject uploads sizeBytes from reader; -1 streams an unknown size.
	PutObject(ctx context.Context, bucket, objectKey string, reader io.Reader, sizeBytes int64, opts PutOptions) error

	// GetObject opens a reader for an object.
	// Caller must close the returned reader.
	GetObject(ctx context.Context, bucket, objectKey string) (io.ReadCloser, error)

	// StatObject returns size and metadata for an object.
	StatObject(ctx context.Context, bucket, objectKey string) (ObjectStat, error)
}

// PutOptions carries object metadata.
type PutOptions struct {
	ContentType     string
	ContentEncoding string
	Metadata        map[string]string
}

// ObjectStat contains object metadata.
type ObjectStat struct {
	SizeBytes       int64
	ETag            string
	ContentType     string
	ContentEncoding string
}
