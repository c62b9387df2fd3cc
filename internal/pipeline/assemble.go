package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dvloznov/pdf-ocr/internal/gcs"
	"github.com/dvloznov/pdf-ocr/internal/logger"
	"github.com/dvloznov/pdf-ocr/internal/ocr"
)

// Assembly summarises an aggregate text file.
type Assembly struct {
	Objects       int
	Pages         int
	PagesWithText int
	Bytes         int
}

// AssembleText reads every result object under output, in page order, and writes the
// concatenated page texts to outputPath. The file is written once, after every object
// has been read; a failure on any object leaves it untouched.
func AssembleText(ctx context.Context, store gcs.StorageService, output gcs.URI, outputPath string) (Assembly, error) {
	log := logger.FromContext(ctx).With().Str("prefix", output.String()).Logger()

	listed, err := store.ListObjects(ctx, output.Bucket, output.Object)
	if err != nil {
		return Assembly{}, stageError(StageAssemble, KindResultProcessing, err)
	}

	names := make([]string, 0, len(listed))
	for _, obj := range listed {
		names = append(names, obj.Name)
	}
	objects := ocr.OrderResultObjects(names)

	var sb strings.Builder
	var summary Assembly
	for _, obj := range objects {
		if !obj.Ranged {
			log.Warn().Str("object", obj.Name).Msg("Result object has no page range; appending after ranged objects")
		}

		data, err := store.ReadObject(ctx, output.Bucket, obj.Name)
		if err != nil {
			return Assembly{}, stageError(StageAssemble, KindResultProcessing, err)
		}

		resp, err := ocr.DecodeResponse(data)
		if err != nil {
			return Assembly{}, stageError(StageAssemble, KindResultProcessing, fmt.Errorf("%s: %w", obj.Name, err))
		}

		pages := ocr.PageTexts(resp)
		for _, p := range pages {
			sb.WriteString(PageBreakMarker)
			sb.WriteString(p.Text)
		}

		summary.Objects++
		summary.Pages += len(resp.GetResponses())
		summary.PagesWithText += len(pages)

		log.Debug().
			Str("object", obj.Name).
			Int("pages", len(resp.GetResponses())).
			Int("pages_with_text", len(pages)).
			Msg("Read result object")
	}

	text := sb.String()
	if err := os.WriteFile(outputPath, []byte(text), outputFileMode); err != nil {
		return Assembly{}, stageError(StageAssemble, KindResultProcessing, fmt.Errorf("write %s: %w", outputPath, err))
	}
	summary.Bytes = len(text)

	log.Info().
		Str("output", outputPath).
		Int("objects", summary.Objects).
		Int("pages_with_text", summary.PagesWithText).
		Int("bytes", summary.Bytes).
		Msg("Text assembled")
	return summary, nil
}
