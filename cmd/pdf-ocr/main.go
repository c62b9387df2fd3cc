package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dvloznov/pdf-ocr/internal/app"
	"github.com/dvloznov/pdf-ocr/internal/config"
	"github.com/dvloznov/pdf-ocr/internal/logger"
	"github.com/dvloznov/pdf-ocr/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		fmt.Println("\n--- FATAL ERROR ---")
		fmt.Printf("An error occurred: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.NewWithOptions(os.Stderr, cfg.LogFormat, cfg.LogLevel)

	// Interrupts cancel the OCR wait.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx, log)

	svc, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close clients")
		}
	}()

	state, err := pipeline.Run(ctx, cfg, svc.Deps())
	if err != nil {
		return err
	}

	fmt.Printf("Extracted text from %d of %d pages written to %s\n",
		state.Assembly.PagesWithText, state.Assembly.Pages, cfg.OutputPath)
	return nil
}
