// Package ocrtest provides scripted ocr.Annotator implementations for tests.
package ocrtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/pdf-ocr/internal/gcs"
	"github.com/dvloznov/pdf-ocr/internal/ocr"
)

// MockOperation is an ocr.Operation whose Wait behaviour is supplied by the test.
type MockOperation struct {
	OpName   string
	WaitFunc func(ctx context.Context) error
}

func (o *MockOperation) Name() string {
	return o.OpName
}

func (o *MockOperation) Wait(ctx context.Context) error {
	if o.WaitFunc != nil {
		return o.WaitFunc(ctx)
	}
	return nil
}

// BlockingOperation never completes on its own; Wait returns only when ctx ends.
func BlockingOperation() *MockOperation {
	return &MockOperation{
		OpName: "operations/blocking",
		WaitFunc: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
}

// MockAnnotator records submitted requests and hands out operations from SubmitFunc.
// Without SubmitFunc every submission yields an operation that completes immediately.
type MockAnnotator struct {
	SubmitFunc func(ctx context.Context, req ocr.Request) (ocr.Operation, error)

	mu       sync.Mutex
	requests []ocr.Request
	closed   bool
}

func (m *MockAnnotator) Submit(ctx context.Context, req ocr.Request) (ocr.Operation, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, req)
	}
	return &MockOperation{OpName: "operations/mock"}, nil
}

func (m *MockAnnotator) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Requests returns every request submitted so far.
func (m *MockAnnotator) Requests() []ocr.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ocr.Request(nil), m.requests...)
}

// Closed reports whether Close was called.
func (m *MockAnnotator) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// WritingAnnotator returns an annotator whose operations, once waited on, write
// objects (name relative to the request's output prefix) into store.
func WritingAnnotator(store gcs.StorageService, objects map[string][]byte) *MockAnnotator {
	return &MockAnnotator{
		SubmitFunc: func(ctx context.Context, req ocr.Request) (ocr.Operation, error) {
			out, err := gcs.ParseURI(req.OutputURI)
			if err != nil {
				return nil, err
			}
			return &MockOperation{
				OpName: "operations/writing",
				WaitFunc: func(ctx context.Context) error {
					for name, data := range objects {
						if err := store.WriteObject(ctx, out.Bucket, out.Object+name, data, ocr.ResultContentType); err != nil {
							return fmt.Errorf("write %s: %w", name, err)
						}
					}
					return nil
				},
			}, nil
		},
	}
}

// ResultJSON encodes one result object holding the given pages, numbered from firstPage.
// An empty string produces a page response without a text annotation.
func ResultJSON(firstPage int, texts ...string) []byte {
	pages := make([]ocr.Page, len(texts))
	for i, text := range texts {
		pages[i] = ocr.Page{Number: firstPage + i, Text: text}
	}
	responses := ocr.BuildResponses("gs://test-bucket/input.pdf", pages, len(pages)+1)
	if len(responses) == 0 {
		return []byte(`{"responses":[]}`)
	}
	data, err := ocr.EncodeResponse(responses[0])
	if err != nil {
		panic(err)
	}
	return data
}

var _ ocr.Annotator = (*MockAnnotator)(nil)
