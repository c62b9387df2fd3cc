// Package app builds the production services a pipeline run needs from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/pdf-ocr/internal/config"
	"github.com/dvloznov/pdf-ocr/internal/gcsstore"
	"github.com/dvloznov/pdf-ocr/internal/logger"
	"github.com/dvloznov/pdf-ocr/internal/ocr"
	"github.com/dvloznov/pdf-ocr/internal/pipeline"
	"github.com/dvloznov/pdf-ocr/internal/runs"
	bqruns "github.com/dvloznov/pdf-ocr/internal/runs/bigquery"
	"github.com/dvloznov/pdf-ocr/internal/runs/inmemory"
)

// Services owns the clients behind one process. Close releases all of them.
type Services struct {
	Storage   *gcsstore.Service
	Annotator ocr.Annotator
	Runs      *inmemory.Store
	Recorder  runs.Recorder

	closers []func() error
}

// New connects to storage, the configured OCR engine and, when a runs dataset is
// configured, the BigQuery audit table.
func New(ctx context.Context, cfg config.Config) (*Services, error) {
	log := logger.FromContext(ctx)
	s := &Services{Runs: inmemory.NewStore()}

	store, err := gcsstore.NewService(ctx)
	if err != nil {
		return nil, err
	}
	s.Storage = store
	s.closers = append(s.closers, store.Close)

	annotator, err := newAnnotator(ctx, cfg, store)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Annotator = annotator
	s.closers = append(s.closers, annotator.Close)

	s.Recorder = s.Runs
	if cfg.RunsDataset != "" {
		rec, err := bqruns.NewRecorder(ctx, cfg.ProjectID, cfg.RunsDataset, cfg.RunsTable)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, rec.Close)

		if err := rec.EnsureTable(ctx); err != nil {
			log.Warn().Err(err).Msg("Run audit table unavailable; runs are recorded in memory only")
		} else {
			s.Recorder = runs.MultiRecorder{s.Runs, rec}
		}
	}

	log.Debug().
		Str("engine", cfg.OCREngine).
		Bool("bigquery_runs", cfg.RunsDataset != "").
		Msg("Services ready")
	return s, nil
}

func newAnnotator(ctx context.Context, cfg config.Config, store *gcsstore.Service) (ocr.Annotator, error) {
	switch cfg.OCREngine {
	case config.EngineVision:
		return ocr.NewVisionAnnotator(ctx, cfg.ProjectID, cfg.VisionLocation)
	case config.EngineGemini:
		return ocr.NewGeminiAnnotator(ctx, cfg.ProjectID, cfg.GeminiLocation, cfg.GeminiModel, store)
	default:
		return nil, fmt.Errorf("unknown ocr engine %q", cfg.OCREngine)
	}
}

// Deps returns the services in the shape pipeline.Run expects.
func (s *Services) Deps() pipeline.Deps {
	return pipeline.Deps{
		Storage:   s.Storage,
		Annotator: s.Annotator,
		Recorder:  s.Recorder,
	}
}

// Close releases every client in reverse order of creation.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
