package gcsstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/pdf-ocr/internal/gcs"
	"google.golang.org/api/iterator"
)

// ReadObject downloads the full content of an object.
func (s *Service) ReadObject(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	r, err := s.client.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open GCS object reader %s/%s: %w", bucketName, objectName, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read GCS object %s/%s: %w", bucketName, objectName, err)
	}

	return data, nil
}

// ListObjects lists the objects under prefix in the order the service returns them.
func (s *Service) ListObjects(ctx context.Context, bucketName, prefix string) ([]gcs.ObjectAttrs, error) {
	it := s.client.Bucket(bucketName).Objects(ctx, &storage.Query{Prefix: prefix})

	var objects []gcs.ObjectAttrs
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list gs://%s/%s: %w", bucketName, prefix, err)
		}
		objects = append(objects, gcs.ObjectAttrs{
			Name:        attrs.Name,
			Size:        attrs.Size,
			ContentType: attrs.ContentType,
			Updated:     attrs.Updated,
		})
	}

	return objects, nil
}
