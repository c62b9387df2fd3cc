package pipeline

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	base := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{name: "nil", err: nil, want: KindUnknown},
		{name: "plain", err: base, want: KindUnknown},
		{name: "direct", err: stageError(StageUpload, KindLocalInput, base), want: KindLocalInput},
		{name: "wrapped", err: fmt.Errorf("pipeline step 3 failed: %w", stageError(StageDetect, KindOCR, base)), want: KindOCR},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStageError(t *testing.T) {
	base := errors.New("bucket name already in use")
	err := stageError(StageProvision, KindProvisioning, base)

	if !errors.Is(err, base) {
		t.Error("StageError should unwrap to its cause")
	}
	if got := err.Error(); got != "provision (provisioning): bucket name already in use" {
		t.Errorf("Error() = %q", got)
	}

	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageProvision {
		t.Errorf("errors.As() = %+v", se)
	}
}
