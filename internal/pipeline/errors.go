package pipeline

import (
	"errors"
	"fmt"
)

// ErrNotPDF is returned when the input file is not a PDF document.
var ErrNotPDF = errors.New("input is not a PDF document")

// ErrorKind classifies a pipeline failure.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindConfig is a missing or placeholder setting, found before any remote call.
	KindConfig
	// KindLocalInput is an absent or unreadable input document.
	KindLocalInput
	// KindProvisioning is a storage failure: bucket lookup, bucket creation or upload.
	KindProvisioning
	// KindOCR is a submission failure, operation failure or deadline expiry.
	KindOCR
	// KindResultProcessing is a failure listing, reading or decoding result objects,
	// or writing the aggregate file.
	KindResultProcessing
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindLocalInput:
		return "local_input"
	case KindProvisioning:
		return "provisioning"
	case KindOCR:
		return "ocr"
	case KindResultProcessing:
		return "result_processing"
	default:
		return "unknown"
	}
}

// StageError tags an error with the stage that produced it and its kind.
type StageError struct {
	Stage string
	Kind  ErrorKind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first StageError in err's chain, or KindUnknown.
func KindOf(err error) ErrorKind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

func stageError(stage string, kind ErrorKind, err error) error {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}
