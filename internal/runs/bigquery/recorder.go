package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"

	"github.com/dvloznov/pdf-ocr/internal/logger"
	"github.com/dvloznov/pdf-ocr/internal/runs"
)

// Recorder writes run records to a BigQuery table: an INSERT for the INIT record,
// then an UPDATE for every later state.
type Recorder struct {
	client  *bigquery.Client
	dataset string
	table   string
	exec    execFunc
}

type execFunc func(ctx context.Context, sql string, params []bigquery.QueryParameter) error

// NewRecorder creates a recorder that owns its BigQuery client.
func NewRecorder(ctx context.Context, projectID, dataset, table string) (*Recorder, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRecorder: bigquery client: %w", err)
	}
	return NewRecorderWithClient(client, dataset, table), nil
}

// NewRecorderWithClient creates a recorder using the provided BigQuery client.
func NewRecorderWithClient(client *bigquery.Client, dataset, table string) *Recorder {
	r := &Recorder{client: client, dataset: dataset, table: table}
	r.exec = r.runQuery
	return r
}

// Close releases the BigQuery client.
func (r *Recorder) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

// EnsureDataset creates the dataset in location if it does not exist.
func (r *Recorder) EnsureDataset(ctx context.Context, location string) error {
	err := r.client.Dataset(r.dataset).Create(ctx, &bigquery.DatasetMetadata{Location: location})
	if isConflict(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("EnsureDataset: create %s: %w", r.dataset, err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("dataset", r.dataset).
		Str("location", location).
		Msg("Created run audit dataset")
	return nil
}

// EnsureTable creates the audit table, day-partitioned on run_date, if it does not exist.
func (r *Recorder) EnsureTable(ctx context.Context) error {
	schema, err := bigquery.InferSchema(RunRow{})
	if err != nil {
		return fmt.Errorf("EnsureTable: infer schema: %w", err)
	}

	meta := &bigquery.TableMetadata{
		Schema: schema,
		TimePartitioning: &bigquery.TimePartitioning{
			Type:  bigquery.DayPartitioningType,
			Field: "run_date",
		},
	}

	err = r.client.Dataset(r.dataset).Table(r.table).Create(ctx, meta)
	if isConflict(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("EnsureTable: create %s.%s: %w", r.dataset, r.table, err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("dataset", r.dataset).
		Str("table", r.table).
		Msg("Created run audit table")
	return nil
}

func isConflict(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict
}

// RecordRun implements runs.Recorder.
func (r *Recorder) RecordRun(ctx context.Context, run *runs.Run) error {
	var sql string
	var params []bigquery.QueryParameter
	if run.State == runs.StateInit {
		sql, params = r.insertStatement(rowFromRun(run))
	} else {
		sql, params = r.updateStatement(rowFromRun(run))
	}

	if err := r.exec(ctx, sql, params); err != nil {
		return fmt.Errorf("RecordRun %s (%s): %w", run.RunID, run.State, err)
	}
	return nil
}

func (r *Recorder) insertStatement(row RunRow) (string, []bigquery.QueryParameter) {
	sql := fmt.Sprintf(`
		INSERT %s.%s (
			run_id,
			run_date,
			started_ts,
			state,
			engine,
			document_path,
			output_path
		)
		VALUES (
			@run_id,
			@run_date,
			@started_ts,
			@state,
			@engine,
			@document_path,
			@output_path
		)
	`, r.dataset, r.table)

	return sql, []bigquery.QueryParameter{
		{Name: "run_id", Value: row.RunID},
		{Name: "run_date", Value: row.RunDate},
		{Name: "started_ts", Value: row.StartedTS},
		{Name: "state", Value: row.State},
		{Name: "engine", Value: row.Engine},
		{Name: "document_path", Value: row.DocumentPath},
		{Name: "output_path", Value: row.OutputPath},
	}
}

func (r *Recorder) updateStatement(row RunRow) (string, []bigquery.QueryParameter) {
	sql := fmt.Sprintf(`
		UPDATE %s.%s
		SET state = @state,
		    finished_ts = @finished_ts,
		    input_uri = @input_uri,
		    output_uri = @output_uri,
		    operation_name = @operation_name,
		    page_count = @page_count,
		    result_objects = @result_objects,
		    pages_with_text = @pages_with_text,
		    error_message = @error_message
		WHERE run_id = @run_id
	`, r.dataset, r.table)

	return sql, []bigquery.QueryParameter{
		{Name: "state", Value: row.State},
		{Name: "finished_ts", Value: row.FinishedTS},
		{Name: "input_uri", Value: row.InputURI},
		{Name: "output_uri", Value: row.OutputURI},
		{Name: "operation_name", Value: row.OperationName},
		{Name: "page_count", Value: row.PageCount},
		{Name: "result_objects", Value: row.ResultObjects},
		{Name: "pages_with_text", Value: row.PagesWithText},
		{Name: "error_message", Value: row.ErrorMessage},
		{Name: "run_id", Value: row.RunID},
	}
}

func (r *Recorder) runQuery(ctx context.Context, sql string, params []bigquery.QueryParameter) error {
	q := r.client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}

// Ensure Recorder implements the runs.Recorder interface.
var _ runs.Recorder = (*Recorder)(nil)
