package gcsstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/pdf-ocr/internal/gcs"
	"google.golang.org/api/googleapi"
)

// BucketExists reports whether bucketName exists.
func (s *Service) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	_, err := s.client.Bucket(bucketName).Attrs(ctx)
	if errors.Is(err, storage.ErrBucketNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("bucket attrs %q: %w", bucketName, err)
	}
	return true, nil
}

// CreateBucket creates bucketName in location, billed to projectID.
func (s *Service) CreateBucket(ctx context.Context, bucketName, projectID, location string) error {
	attrs := &storage.BucketAttrs{Location: location}
	if err := s.client.Bucket(bucketName).Create(ctx, projectID, attrs); err != nil {
		return wrapCreateError(bucketName, err)
	}
	return nil
}

func wrapCreateError(bucketName string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusConflict {
		return fmt.Errorf("create bucket %q: %w: %v", bucketName, gcs.ErrBucketConflict, err)
	}
	return fmt.Errorf("create bucket %q: %w", bucketName, err)
}
