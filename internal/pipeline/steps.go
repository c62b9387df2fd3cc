package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/pdf-ocr/internal/config"
	"github.com/dvloznov/pdf-ocr/internal/gcs"
	"github.com/dvloznov/pdf-ocr/internal/logger"
	"github.com/dvloznov/pdf-ocr/internal/ocr"
	"github.com/dvloznov/pdf-ocr/internal/runs"
)

// PipelineStep represents a single stage of the OCR pipeline.
// A successful step moves the run one state forward.
type PipelineStep interface {
	Name() string
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	Config config.Config
	Run    runs.Run

	Upload    Upload
	Detection Detection
	Assembly  Assembly
}

// Step 1: EnsureBucketStep makes sure the bucket exists.
type EnsureBucketStep struct {
	Storage gcs.StorageService
}

func (s *EnsureBucketStep) Name() string { return StageProvision }

func (s *EnsureBucketStep) Execute(ctx context.Context, state *PipelineState) error {
	return EnsureBucket(ctx, s.Storage, state.Config)
}

// Step 2: UploadStep uploads the input document.
type UploadStep struct {
	Storage gcs.StorageService
}

func (s *UploadStep) Name() string { return StageUpload }

func (s *UploadStep) Execute(ctx context.Context, state *PipelineState) error {
	upload, err := UploadDocument(ctx, s.Storage, state.Config)
	if err != nil {
		return err
	}
	state.Upload = upload
	state.Run.InputURI = upload.URI.String()
	state.Run.PageCount = upload.Pages
	return nil
}

// Step 3: DetectStep runs OCR over the uploaded document.
type DetectStep struct {
	Annotator ocr.Annotator
}

func (s *DetectStep) Name() string { return StageDetect }

func (s *DetectStep) Execute(ctx context.Context, state *PipelineState) error {
	detection, err := DetectText(ctx, s.Annotator, state.Upload.URI, state.Config)
	if err != nil {
		return err
	}
	state.Detection = detection
	state.Run.OperationName = detection.OperationName
	state.Run.OutputURI = detection.OutputURI.String()
	return nil
}

// Step 4: AssembleStep writes the aggregate text file.
type AssembleStep struct {
	Storage gcs.StorageService
}

func (s *AssembleStep) Name() string { return StageAssemble }

func (s *AssembleStep) Execute(ctx context.Context, state *PipelineState) error {
	assembly, err := AssembleText(ctx, s.Storage, state.Detection.OutputURI, state.Config.OutputPath)
	if err != nil {
		return err
	}
	state.Assembly = assembly
	state.Run.ResultObjects = assembly.Objects
	state.Run.PagesWithText = assembly.PagesWithText

	if state.Upload.Pages > 0 && assembly.Pages != state.Upload.Pages {
		log := logger.FromContext(ctx)
		log.Warn().
			Int("document_pages", state.Upload.Pages).
			Int("result_pages", assembly.Pages).
			Msg("Result page count differs from document page count")
	}
	return nil
}

// Pipeline executes a sequence of steps in order, recording every state change.
type Pipeline struct {
	steps    []PipelineStep
	recorder runs.Recorder
}

// NewPipeline creates a new pipeline with the given steps. A nil recorder discards records.
func NewPipeline(recorder runs.Recorder, steps ...PipelineStep) *Pipeline {
	if recorder == nil {
		recorder = runs.NopRecorder{}
	}
	return &Pipeline{steps: steps, recorder: recorder}
}

// Execute runs all steps in the pipeline sequentially and stops at the first failure.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	state.Run.State = runs.StateInit
	p.record(ctx, &state.Run)

	for i, step := range p.steps {
		stepLog := logger.WithFields(logger.FromContext(ctx), map[string]interface{}{
			"stage": step.Name(),
			"step":  i + 1,
		})
		if err := step.Execute(logger.WithContext(ctx, stepLog), state); err != nil {
			p.finish(ctx, &state.Run, runs.StateFailed, err)
			return fmt.Errorf("pipeline step %d (%s) failed: %w", i+1, step.Name(), err)
		}

		next, ok := state.Run.State.Next()
		if !ok {
			return fmt.Errorf("pipeline step %d (%s): no state after %s", i+1, step.Name(), state.Run.State)
		}
		if next.Terminal() {
			p.finish(ctx, &state.Run, next, nil)
			continue
		}
		state.Run.State = next
		p.record(ctx, &state.Run)
	}
	return nil
}

func (p *Pipeline) finish(ctx context.Context, run *runs.Run, to runs.State, err error) {
	now := time.Now()
	run.State = to
	run.FinishedAt = &now
	if err != nil {
		run.Error = err.Error()
	}
	p.record(ctx, run)
}

// record never fails the pipeline; audit errors are only logged.
func (p *Pipeline) record(ctx context.Context, run *runs.Run) {
	if err := p.recorder.RecordRun(ctx, run); err != nil {
		log := logger.FromContext(ctx)
		log.Error().
			Err(err).
			Str("state", string(run.State)).
			Msg("Failed to record run")
	}
}

// NewOCRPipeline creates the standard four-step pipeline.
func NewOCRPipeline(storage gcs.StorageService, annotator ocr.Annotator, recorder runs.Recorder) *Pipeline {
	return NewPipeline(recorder,
		&EnsureBucketStep{Storage: storage},
		&UploadStep{Storage: storage},
		&DetectStep{Annotator: annotator},
		&AssembleStep{Storage: storage},
	)
}
