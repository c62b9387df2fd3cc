package runs

import (
	"context"
	"time"
)

// State is a pipeline run's position in its state machine.
type State string

const (
	// StateInit is a run that has not finished any stage.
	StateInit State = "INIT"
	// StateBucketReady means the bucket exists.
	StateBucketReady State = "BUCKET_READY"
	// StateUploaded means the document is in the bucket.
	StateUploaded State = "UPLOADED"
	// StateOCRComplete means the OCR operation finished and results are stored.
	StateOCRComplete State = "OCR_COMPLETE"
	// StateTextExtracted is the terminal success state.
	StateTextExtracted State = "TEXT_EXTRACTED"
	// StateFailed is the terminal failure state.
	StateFailed State = "FAILED"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateTextExtracted || s == StateFailed
}

var forward = map[State]State{
	StateInit:        StateBucketReady,
	StateBucketReady: StateUploaded,
	StateUploaded:    StateOCRComplete,
	StateOCRComplete: StateTextExtracted,
}

// Next returns the state reached when the current stage succeeds.
func (s State) Next() (State, bool) {
	next, ok := forward[s]
	return next, ok
}

// CanTransition reports whether from → to is a legal move: one step forward,
// or to FAILED from any non-terminal state.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	next, ok := from.Next()
	return ok && next == to
}

// Run is the audit record of one pipeline invocation.
type Run struct {
	// RunID is the unique identifier for this run.
	RunID string `json:"run_id"`

	State State `json:"state"`

	DocumentPath string `json:"document_path"`
	InputURI     string `json:"input_uri,omitempty"`
	OutputURI    string `json:"output_uri,omitempty"`
	OutputPath   string `json:"output_path"`
	Engine       string `json:"engine"`

	// OperationName is the provider-side OCR operation.
	OperationName string `json:"operation_name,omitempty"`

	PageCount     int `json:"page_count"`
	ResultObjects int `json:"result_objects"`
	PagesWithText int `json:"pages_with_text"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error contains error details if the run failed.
	Error string `json:"error,omitempty"`
}

// Recorder persists run records. RecordRun is called once per state change with the
// full current record.
type Recorder interface {
	RecordRun(ctx context.Context, run *Run) error
}

// Filter defines filtering criteria for listing runs.
type Filter struct {
	State State
	Limit int
}

// NopRecorder discards every record.
type NopRecorder struct{}

func (NopRecorder) RecordRun(ctx context.Context, run *Run) error { return nil }

// MultiRecorder fans a record out to several recorders and returns the first error.
type MultiRecorder []Recorder

func (m MultiRecorder) RecordRun(ctx context.Context, run *Run) error {
	var first error
	for _, r := range m {
		if err := r.RecordRun(ctx, run); err != nil && first == nil {
			first = err
		}
	}
	return first
}
