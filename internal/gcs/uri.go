package gcs

import (
	"fmt"
	"strings"
)

const scheme = "gs://"

// URI is a fully-qualified storage reference: a bucket plus an object name or prefix.
type URI struct {
	Bucket string
	Object string
}

// NewURI builds a URI for an object (or prefix) inside bucket.
func NewURI(bucket, object string) URI {
	return URI{Bucket: bucket, Object: object}
}

// String renders the URI as gs://bucket/object.
func (u URI) String() string {
	return scheme + u.Bucket + "/" + u.Object
}

// ParseURI splits a gs:// URI into bucket and object.
// e.g., "gs://bucket/folder/file.pdf" → {bucket, folder/file.pdf}
func ParseURI(uri string) (URI, error) {
	if !strings.HasPrefix(uri, scheme) {
		return URI{}, fmt.Errorf("invalid GCS URI: %s", uri)
	}

	trimmed := strings.TrimPrefix(uri, scheme)
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return URI{}, fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}

	return URI{Bucket: parts[0], Object: parts[1]}, nil
}
