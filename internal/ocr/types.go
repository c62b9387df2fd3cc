// Package ocr submits asynchronous document text detection jobs and decodes
// the annotation responses they leave in object storage.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// MIMETypePDF is the only input type the pipeline submits.
	MIMETypePDF = "application/pdf"

	// DefaultBatchSize is the number of source pages per result object.
	DefaultBatchSize = 20

	// DefaultTimeout bounds the wait for a submitted operation.
	DefaultTimeout = 600 * time.Second
)

// ErrTimeout is returned when an operation does not complete before its deadline.
var ErrTimeout = errors.New("ocr operation did not complete before the deadline")

// Request describes one asynchronous document text detection job.
type Request struct {
	InputURI  string
	OutputURI string
	MIMEType  string
	BatchSize int
}

// NewDocumentRequest returns a PDF request with the fixed batch size.
func NewDocumentRequest(inputURI, outputURI string) Request {
	return Request{
		InputURI:  inputURI,
		OutputURI: outputURI,
		MIMEType:  MIMETypePDF,
		BatchSize: DefaultBatchSize,
	}
}

// Validate checks that both URIs are storage URIs and the batch size is usable.
func (r Request) Validate() error {
	if !strings.HasPrefix(r.InputURI, "gs://") {
		return fmt.Errorf("input URI must be a gs:// URI, got %q", r.InputURI)
	}
	if !strings.HasPrefix(r.OutputURI, "gs://") {
		return fmt.Errorf("output URI must be a gs:// URI, got %q", r.OutputURI)
	}
	if r.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", r.BatchSize)
	}
	return nil
}

// Operation is a handle on a submitted long-running job.
type Operation interface {
	// Name identifies the operation on the provider side.
	Name() string

	// Wait blocks until the operation completes or ctx is done.
	Wait(ctx context.Context) error
}

// Annotator submits document text detection jobs.
type Annotator interface {
	Submit(ctx context.Context, req Request) (Operation, error)
	Close() error
}
