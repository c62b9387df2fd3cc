package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dvloznov/pdf-ocr/internal/config"
	"github.com/dvloznov/pdf-ocr/internal/logger"
	bqruns "github.com/dvloznov/pdf-ocr/internal/runs/bigquery"
)

// migrate creates the BigQuery dataset and table that record pipeline runs.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	var location string
	flag.StringVar(&cfg.ProjectID, "project", cfg.ProjectID, "GCP project ID (required)")
	flag.StringVar(&cfg.RunsDataset, "dataset", cfg.RunsDataset, "BigQuery dataset ID (required)")
	flag.StringVar(&cfg.RunsTable, "table", cfg.RunsTable, "BigQuery table for run records")
	flag.StringVar(&location, "location", cfg.BucketLocation, "Dataset location")
	flag.Parse()

	log := logger.NewWithOptions(os.Stderr, cfg.LogFormat, cfg.LogLevel)

	if err := config.ValidateProjectID(cfg.ProjectID); err != nil {
		log.Fatal().Err(err).Msg("Error: -project flag is required. Please specify your GCP project ID.")
	}
	if cfg.RunsDataset == "" {
		log.Fatal().Msg("Error: -dataset flag (or RUNS_DATASET) is required")
	}

	ctx := logger.WithContext(context.Background(), log)

	rec, err := bqruns.NewRecorder(ctx, cfg.ProjectID, cfg.RunsDataset, cfg.RunsTable)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer rec.Close()

	log.Info().
		Str("project", cfg.ProjectID).
		Str("dataset", cfg.RunsDataset).
		Str("table", cfg.RunsTable).
		Msg("Connected to BigQuery")

	if err := rec.EnsureDataset(ctx, location); err != nil {
		rec.Close()
		log.Fatal().Err(err).Msg("Failed to ensure dataset")
	}
	if err := rec.EnsureTable(ctx); err != nil {
		rec.Close()
		log.Fatal().Err(err).Msg("Failed to ensure run table")
	}

	fmt.Printf("Run audit table %s.%s is ready\n", cfg.RunsDataset, cfg.RunsTable)
}
