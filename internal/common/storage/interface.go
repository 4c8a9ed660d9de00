package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is wrapped by StatObject and GetObject when the key is absent.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage defines the object operations needed to stage artifacts and
// serve the object-store filesystem. It stays small so MinIO can be swapped
// for another S3-compatible implementation without touching callers.
type ObjectStorage interface {
	// GetObject opens a reader for an object.
	// Caller must close the returned reader.
	GetObject(ctx context.Context, bucket, objectKey string) (ObjectReader, error)

	// PutObject uploads sizeBytes from reader. A negative size streams until EOF.
	PutObject(ctx context.Context, bucket, objectKey string, reader io.Reader, sizeBytes int64, contentType string) error

	// StatObject returns size and ETag for an object.
	StatObject(ctx context.Context, bucket, objectKey string) (ObjectStat, error)

	// ListObjects streams every object under prefix. The channel is closed when listing ends.
	ListObjects(ctx context.Context, bucket, prefix string) <-chan ObjectInfo

	// RemoveObjects deletes keys in one batch.
	RemoveObjects(ctx context.Context, bucket string, keys []string) error
}

// ObjectReader is a streaming reader for object data.
type ObjectReader interface {
	Read(p []byte) (int, error)
	Close() error
}

// ObjectStat contains object metadata.
type ObjectStat struct {
	SizeBytes   int64
	ETag        string
	ContentType string
}

// ObjectInfo is one listing entry. Err is set when listing failed midway.
type ObjectInfo struct {
	Key       string
	SizeBytes int64
	Err       error
}
