package bigquery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/googleapi"

	"github.com/dvloznov/pdf-ocr/internal/runs"
)

type capturedQuery struct {
	sql    string
	params map[string]interface{}
}

func newTestRecorder(err error) (*Recorder, *[]capturedQuery) {
	var captured []capturedQuery
	r := &Recorder{dataset: "ocr", table: "ocr_runs"}
	r.exec = func(ctx context.Context, sql string, params []bigquery.QueryParameter) error {
		q := capturedQuery{sql: sql, params: make(map[string]interface{})}
		for _, p := range params {
			q.params[p.Name] = p.Value
		}
		captured = append(captured, q)
		return err
	}
	return r, &captured
}

func TestRecordRun_InitInserts(t *testing.T) {
	r, captured := newTestRecorder(nil)
	started := time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)

	err := r.RecordRun(context.Background(), &runs.Run{
		RunID:        "run-1",
		State:        runs.StateInit,
		DocumentPath: "protocol.pdf",
		Engine:       "vision",
		StartedAt:    started,
	})
	if err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}

	if len(*captured) != 1 {
		t.Fatalf("Expected 1 query, got %d", len(*captured))
	}
	q := (*captured)[0]
	if !strings.Contains(q.sql, "INSERT ocr.ocr_runs") {
		t.Errorf("Expected INSERT into ocr.ocr_runs, got %s", q.sql)
	}
	if q.params["run_id"] != "run-1" || q.params["state"] != "INIT" {
		t.Errorf("unexpected params: %v", q.params)
	}
	if q.params["run_date"] != (civil.Date{Year: 2025, Month: time.March, Day: 1}) {
		t.Errorf("run_date = %v", q.params["run_date"])
	}
}

func TestRecordRun_LaterStatesUpdate(t *testing.T) {
	r, captured := newTestRecorder(nil)
	finished := time.Now()

	err := r.RecordRun(context.Background(), &runs.Run{
		RunID:         "run-1",
		State:         runs.StateTextExtracted,
		InputURI:      "gs://protocols/protocol.pdf",
		OutputURI:     "gs://protocols/ocr_results/",
		OperationName: "projects/p/operations/42",
		ResultObjects: 2,
		PagesWithText: 25,
		FinishedAt:    &finished,
	})
	if err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}

	q := (*captured)[0]
	if !strings.Contains(q.sql, "UPDATE ocr.ocr_runs") {
		t.Errorf("Expected UPDATE, got %s", q.sql)
	}
	if got := q.params["pages_with_text"].(bigquery.NullInt64); !got.Valid || got.Int64 != 25 {
		t.Errorf("pages_with_text = %+v", got)
	}
	if got := q.params["page_count"].(bigquery.NullInt64); got.Valid {
		t.Errorf("page_count should be NULL when unknown, got %+v", got)
	}
	if got := q.params["finished_ts"].(bigquery.NullTimestamp); !got.Valid {
		t.Error("finished_ts should be set")
	}
	for _, col := range []string{"input_uri", "output_uri"} {
		if !strings.Contains(q.sql, col+" = @"+col) {
			t.Errorf("UPDATE does not set %s: %s", col, q.sql)
		}
	}
	if got := q.params["input_uri"].(bigquery.NullString); !got.Valid || got.StringVal != "gs://protocols/protocol.pdf" {
		t.Errorf("input_uri = %+v", got)
	}
	if got := q.params["error_message"].(bigquery.NullString); got.Valid {
		t.Errorf("error_message should be NULL on success, got %+v", got)
	}
}

func TestRecordRun_TruncatesError(t *testing.T) {
	r, captured := newTestRecorder(nil)

	err := r.RecordRun(context.Background(), &runs.Run{
		RunID: "run-1",
		State: runs.StateFailed,
		Error: strings.Repeat("x", 5000),
	})
	if err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}

	got := (*captured)[0].params["error_message"].(bigquery.NullString)
	if !got.Valid || len(got.StringVal) != maxErrorLen {
		t.Errorf("error_message length = %d, want %d", len(got.StringVal), maxErrorLen)
	}
}

func TestRecordRun_PropagatesQueryError(t *testing.T) {
	boom := errors.New("quota exceeded")
	r, _ := newTestRecorder(boom)

	err := r.RecordRun(context.Background(), &runs.Run{RunID: "run-1", State: runs.StateUploaded})
	if !errors.Is(err, boom) {
		t.Errorf("RecordRun() error = %v, want wrapped query error", err)
	}
}

func TestInferSchema(t *testing.T) {
	schema, err := bigquery.InferSchema(RunRow{})
	if err != nil {
		t.Fatalf("InferSchema() error = %v", err)
	}
	names := make(map[string]bool)
	for _, f := range schema {
		names[f.Name] = true
	}
	for _, want := range []string{"run_id", "run_date", "started_ts", "finished_ts", "input_uri", "error_message"} {
		if !names[want] {
			t.Errorf("schema missing column %q", want)
		}
	}
}

func TestInsertCoversRequiredColumns(t *testing.T) {
	schema, err := bigquery.InferSchema(RunRow{})
	if err != nil {
		t.Fatalf("InferSchema() error = %v", err)
	}

	r, captured := newTestRecorder(nil)
	if err := r.RecordRun(context.Background(), &runs.Run{RunID: "run-1", State: runs.StateInit, StartedAt: time.Now()}); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}
	insert := (*captured)[0]

	for _, f := range schema {
		_, bound := insert.params[f.Name]
		if f.Required && !bound {
			t.Errorf("REQUIRED column %q is not written by the INIT insert", f.Name)
		}
	}
	for _, nullable := range []string{"operation_name", "error_message", "input_uri", "output_uri", "finished_ts"} {
		for _, f := range schema {
			if f.Name == nullable && f.Required {
				t.Errorf("column %q should be NULLABLE", nullable)
			}
		}
	}
}

func TestIsConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "conflict", err: &googleapi.Error{Code: 409}, want: true},
		{name: "wrapped conflict", err: fmt.Errorf("create: %w", &googleapi.Error{Code: 409}), want: true},
		{name: "forbidden", err: &googleapi.Error{Code: 403}, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConflict(tt.err); got != tt.want {
				t.Errorf("isConflict(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
