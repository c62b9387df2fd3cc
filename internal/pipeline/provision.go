package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/pdf-ocr/internal/config"
	"github.com/dvloznov/pdf-ocr/internal/gcs"
	"github.com/dvloznov/pdf-ocr/internal/logger"
)

// EnsureBucket makes sure the configured bucket exists, creating it in the configured
// location if it does not. An existing bucket is left untouched.
func EnsureBucket(ctx context.Context, store gcs.StorageService, cfg config.Config) error {
	if err := config.ValidateProjectID(cfg.ProjectID); err != nil {
		return stageError(StageProvision, KindConfig, err)
	}

	log := logger.FromContext(ctx).With().Str("bucket", cfg.BucketName).Logger()

	exists, err := store.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return stageError(StageProvision, KindProvisioning, fmt.Errorf("check bucket %s: %w", cfg.BucketName, err))
	}
	if exists {
		log.Info().Msg("Bucket already exists")
		return nil
	}

	log.Info().Str("location", cfg.BucketLocation).Msg("Creating bucket")
	if err := store.CreateBucket(ctx, cfg.BucketName, cfg.ProjectID, cfg.BucketLocation); err != nil {
		return stageError(StageProvision, KindProvisioning, err)
	}

	log.Info().Msg("Bucket created")
	return nil
}
