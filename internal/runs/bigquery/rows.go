package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/dvloznov/pdf-ocr/internal/runs"
)

// RunRow is one row of the run audit table.
type RunRow struct {
	RunID   string     `bigquery:"run_id"`   // REQUIRED
	RunDate civil.Date `bigquery:"run_date"` // REQUIRED, partition column

	StartedTS  time.Time              `bigquery:"started_ts"`  // REQUIRED
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"` // NULLABLE

	State        string `bigquery:"state"`         // REQUIRED
	Engine       string `bigquery:"engine"`        // REQUIRED
	DocumentPath string `bigquery:"document_path"` // REQUIRED
	OutputPath   string `bigquery:"output_path"`   // REQUIRED

	InputURI      bigquery.NullString `bigquery:"input_uri"`      // NULLABLE, set after upload
	OutputURI     bigquery.NullString `bigquery:"output_uri"`     // NULLABLE, set after OCR
	OperationName bigquery.NullString `bigquery:"operation_name"` // NULLABLE

	PageCount     bigquery.NullInt64 `bigquery:"page_count"`      // NULLABLE
	ResultObjects bigquery.NullInt64 `bigquery:"result_objects"`  // NULLABLE
	PagesWithText bigquery.NullInt64 `bigquery:"pages_with_text"` // NULLABLE

	ErrorMessage bigquery.NullString `bigquery:"error_message"` // NULLABLE
}

const maxErrorLen = 2000

func truncateError(msg string) string {
	if len(msg) > maxErrorLen {
		return msg[:maxErrorLen]
	}
	return msg
}

func nullString(v string) bigquery.NullString {
	return bigquery.NullString{StringVal: v, Valid: v != ""}
}

func nullInt(v int) bigquery.NullInt64 {
	return bigquery.NullInt64{Int64: int64(v), Valid: v > 0}
}

// rowFromRun converts a run record into its table row.
func rowFromRun(run *runs.Run) RunRow {
	row := RunRow{
		RunID:         run.RunID,
		RunDate:       civil.DateOf(run.StartedAt.UTC()),
		StartedTS:     run.StartedAt,
		State:         string(run.State),
		Engine:        run.Engine,
		DocumentPath:  run.DocumentPath,
		InputURI:      nullString(run.InputURI),
		OutputURI:     nullString(run.OutputURI),
		OutputPath:    run.OutputPath,
		OperationName: nullString(run.OperationName),
		PageCount:     nullInt(run.PageCount),
		ResultObjects: nullInt(run.ResultObjects),
		PagesWithText: nullInt(run.PagesWithText),
		ErrorMessage:  nullString(truncateError(run.Error)),
	}
	if run.FinishedAt != nil {
		row.FinishedTS = bigquery.NullTimestamp{Timestamp: *run.FinishedAt, Valid: true}
	}
	return row
}
