package gcsstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// uploadTimeout bounds a single object write.
const uploadTimeout = 5 * time.Minute

// UploadFile uploads a local file to a GCS bucket under the given object name.
func (s *Service) UploadFile(ctx context.Context, bucketName, objectName, filePath, contentType string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open file %q: %w", filePath, err)
	}
	defer f.Close()

	return s.write(ctx, bucketName, objectName, f, contentType)
}

// WriteObject stores data under the given object name.
func (s *Service) WriteObject(ctx context.Context, bucketName, objectName string, data []byte, contentType string) error {
	return s.write(ctx, bucketName, objectName, bytes.NewReader(data), contentType)
}

func (s *Service) write(ctx context.Context, bucketName, objectName string, r io.Reader, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := s.client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("copy to GCS writer gs://%s/%s: %w", bucketName, objectName, err)
	}

	// Close to finalize the upload
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload gs://%s/%s: %w", bucketName, objectName, err)
	}

	return nil
}
