package gcs

import (
	"context"
	"errors"
	"time"
)

// ErrBucketConflict is returned when a bucket name is already taken in the global namespace.
var ErrBucketConflict = errors.New("bucket name already in use")

// ObjectAttrs is the subset of object metadata the pipeline reads from listings.
type ObjectAttrs struct {
	Name        string
	Size        int64
	ContentType string
	Updated     time.Time
}

// StorageService provides an interface for cloud storage operations.
// This interface enables mocking and testing of storage functionality.
type StorageService interface {
	// BucketExists reports whether the bucket exists and is visible to the caller.
	BucketExists(ctx context.Context, bucketName string) (bool, error)

	// CreateBucket creates a bucket owned by projectID in location.
	CreateBucket(ctx context.Context, bucketName, projectID, location string) error

	// UploadFile uploads a local file to a storage bucket under the given object name,
	// replacing any existing object.
	UploadFile(ctx context.Context, bucketName, objectName, filePath, contentType string) error

	// WriteObject stores data under the given object name, replacing any existing object.
	WriteObject(ctx context.Context, bucketName, objectName string, data []byte, contentType string) error

	// ListObjects lists every object whose name starts with prefix, in listing order.
	ListObjects(ctx context.Context, bucketName, prefix string) ([]ObjectAttrs, error)

	// ReadObject downloads the full content of an object.
	ReadObject(ctx context.Context, bucketName, objectName string) ([]byte, error)
}
