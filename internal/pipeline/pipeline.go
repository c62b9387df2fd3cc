// Package pipeline uploads a PDF, runs OCR over it and assembles the results into
// one text file.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/pdf-ocr/internal/config"
	"github.com/dvloznov/pdf-ocr/internal/gcs"
	"github.com/dvloznov/pdf-ocr/internal/logger"
	"github.com/dvloznov/pdf-ocr/internal/ocr"
	"github.com/dvloznov/pdf-ocr/internal/runs"
)

// Deps are the external services a run talks to.
type Deps struct {
	Storage   gcs.StorageService
	Annotator ocr.Annotator
	Recorder  runs.Recorder
}

// Run validates cfg and executes the full pipeline once. The returned state is
// populated up to the stage that failed.
func Run(ctx context.Context, cfg config.Config, deps Deps) (*PipelineState, error) {
	if err := cfg.Validate(); err != nil {
		return nil, stageError("config", KindConfig, err)
	}

	state := &PipelineState{
		Config: cfg,
		Run: runs.Run{
			RunID:        uuid.NewString(),
			DocumentPath: cfg.InputPath,
			OutputPath:   cfg.OutputPath,
			Engine:       cfg.OCREngine,
			StartedAt:    time.Now(),
		},
	}

	ctx = logger.WithRun(ctx, state.Run.RunID)
	log := logger.FromContext(ctx)
	log.Info().
		Str("input", cfg.InputPath).
		Str("bucket", cfg.BucketName).
		Str("engine", cfg.OCREngine).
		Msg("Starting OCR pipeline")

	p := NewOCRPipeline(deps.Storage, deps.Annotator, deps.Recorder)
	if err := p.Execute(ctx, state); err != nil {
		log.Error().Err(err).Str("kind", KindOf(err).String()).Msg("OCR pipeline failed")
		return state, err
	}

	log.Info().
		Str("output", cfg.OutputPath).
		Int("pages_with_text", state.Assembly.PagesWithText).
		Dur("elapsed", time.Since(state.Run.StartedAt)).
		Msg("OCR pipeline complete")
	return state, nil
}
