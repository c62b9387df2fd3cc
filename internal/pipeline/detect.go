package pipeline

import (
	"context"

	"github.com/dvloznov/pdf-ocr/internal/config"
	"github.com/dvloznov/pdf-ocr/internal/gcs"
	"github.com/dvloznov/pdf-ocr/internal/logger"
	"github.com/dvloznov/pdf-ocr/internal/ocr"
)

// Detection describes a completed OCR operation.
type Detection struct {
	OperationName string
	OutputURI     gcs.URI
}

// DetectText submits a document text detection job for input and blocks until it
// completes, ctx ends, or cfg.OCRTimeout elapses. Nothing under the output prefix is
// read here.
func DetectText(ctx context.Context, annotator ocr.Annotator, input gcs.URI, cfg config.Config) (Detection, error) {
	output := gcs.NewURI(cfg.BucketName, cfg.ResultPrefix())
	req := ocr.NewDocumentRequest(input.String(), output.String())

	task, err := ocr.Start(ctx, annotator, req, cfg.OCRTimeout)
	if err != nil {
		return Detection{}, stageError(StageDetect, KindOCR, err)
	}
	defer task.Cancel()

	log := logger.FromContext(ctx).With().Str("operation", task.Name()).Logger()
	log.Info().
		Str("input", req.InputURI).
		Str("output", req.OutputURI).
		Time("deadline", task.Deadline()).
		Msg("Waiting for OCR operation")

	if err := task.Wait(); err != nil {
		return Detection{}, stageError(StageDetect, KindOCR, err)
	}

	log.Info().Msg("OCR operation complete")
	return Detection{OperationName: task.Name(), OutputURI: output}, nil
}
