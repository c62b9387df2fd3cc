package gcsstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/pdf-ocr/internal/gcs"
	"google.golang.org/api/option"
)

// Service is the concrete implementation of gcs.StorageService
// that interacts with Google Cloud Storage. It holds one shared client
// for the lifetime of a run.
type Service struct {
	client *storage.Client
}

// NewService creates a Service. It assumes Application Default Credentials
// are configured (gcloud auth application-default login).
func NewService(ctx context.Context, opts ...option.ClientOption) (*Service, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Service{client: client}, nil
}

// Close closes the storage client connection.
func (s *Service) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

var _ gcs.StorageService = (*Service)(nil)
