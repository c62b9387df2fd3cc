package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/dvloznov/pdf-ocr/internal/config"
	"github.com/dvloznov/pdf-ocr/internal/gcs"
	"github.com/dvloznov/pdf-ocr/internal/logger"
	"github.com/dvloznov/pdf-ocr/internal/ocr"
)

// pdfHeaderWindow is how far into a file a PDF header may start.
const pdfHeaderWindow = 1024

// Upload describes a document placed in the bucket.
type Upload struct {
	URI   gcs.URI
	Size  int64
	Pages int // 0 when the page count could not be read
}

// UploadDocument checks the local input and uploads it under cfg.ObjectKey(),
// replacing any existing object with the same key.
func UploadDocument(ctx context.Context, store gcs.StorageService, cfg config.Config) (Upload, error) {
	path := cfg.InputPath
	log := logger.FromContext(ctx).With().Str("input", path).Logger()

	info, err := os.Stat(path)
	if err != nil {
		return Upload{}, stageError(StageUpload, KindLocalInput, fmt.Errorf("input document: %w", err))
	}
	if info.IsDir() {
		return Upload{}, stageError(StageUpload, KindLocalInput, fmt.Errorf("input document %s is a directory", path))
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return Upload{}, stageError(StageUpload, KindLocalInput, fmt.Errorf("detect type of %s: %w", path, err))
	}
	if !mtype.Is(ocr.MIMETypePDF) {
		offset, err := pdfHeaderOffset(path)
		if err != nil {
			return Upload{}, stageError(StageUpload, KindLocalInput, fmt.Errorf("read %s: %w", path, err))
		}
		if offset < 0 {
			return Upload{}, stageError(StageUpload, KindLocalInput, fmt.Errorf("%w: %s is %s", ErrNotPDF, path, mtype.String()))
		}
		log.Warn().
			Int("header_offset", offset).
			Str("detected", mtype.String()).
			Msg("PDF header does not start the file; uploading anyway")
	}

	pages, err := countPages(path)
	if err != nil {
		log.Warn().Err(err).Msg("Could not count pages")
	}

	uri := gcs.NewURI(cfg.BucketName, cfg.ObjectKey())
	log.Info().
		Str("uri", uri.String()).
		Int64("bytes", info.Size()).
		Int("pages", pages).
		Msg("Uploading document")

	if err := store.UploadFile(ctx, uri.Bucket, uri.Object, path, ocr.MIMETypePDF); err != nil {
		return Upload{}, stageError(StageUpload, KindProvisioning, err)
	}

	log.Info().Str("uri", uri.String()).Msg("Document uploaded")
	return Upload{URI: uri, Size: info.Size(), Pages: pages}, nil
}

// pdfHeaderOffset returns where "%PDF-" starts within the first pdfHeaderWindow
// bytes of path, or -1 if it does not.
func pdfHeaderOffset(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return -1, err
	}
	defer f.Close()

	buf := make([]byte, pdfHeaderWindow)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return -1, err
	}
	return bytes.Index(buf[:n], []byte("%PDF-")), nil
}

// countPages reads the page count with pdfcpu. Malformed files can make the parser
// panic; that is reported as an error.
func countPages(path string) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("count pages of %s: %v", path, r)
		}
	}()

	pages, err = api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("count pages of %s: %w", path, err)
	}
	return pages, nil
}
