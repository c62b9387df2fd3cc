package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/dvloznov/pdf-ocr/internal/app"
	"github.com/dvloznov/pdf-ocr/internal/config"
	"github.com/dvloznov/pdf-ocr/internal/gcs"
	"github.com/dvloznov/pdf-ocr/internal/logger"
	"github.com/dvloznov/pdf-ocr/internal/pipeline"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runPipeline()
	case "upload":
		runUpload()
	case "detect":
		runDetect()
	case "assemble":
		runAssemble()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("PDF OCR CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  run       Provision the bucket, upload, run OCR and assemble the text")
	fmt.Println("  upload    Provision the bucket and upload the PDF")
	fmt.Println("  detect    Run OCR over an uploaded PDF")
	fmt.Println("  assemble  Assemble existing OCR results into a text file")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nSettings come from defaults, the YAML file named by PDF_OCR_CONFIG and the")
	fmt.Println("environment. Flags override them.")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// command holds what every subcommand needs after flag parsing.
type command struct {
	cfg  config.Config
	log  zerolog.Logger
	ctx  context.Context
	stop context.CancelFunc
}

// newCommand loads the configuration, lets extra register subcommand flags on top of
// the shared ones, parses os.Args[2:] and validates the result.
func newCommand(name string, extra func(fs *flag.FlagSet, cfg *config.Config)) *command {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.StringVar(&cfg.ProjectID, "project", cfg.ProjectID, "GCP project ID")
	fs.StringVar(&cfg.BucketName, "bucket", cfg.BucketName, "GCS bucket name")
	fs.StringVar(&cfg.OutputPrefix, "prefix", cfg.OutputPrefix, "GCS prefix for OCR result objects")
	if extra != nil {
		extra(fs, &cfg)
	}
	fs.Parse(os.Args[2:])

	log := logger.NewWithOptions(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return &command{cfg: cfg, log: log, ctx: logger.WithContext(ctx, log), stop: stop}
}

func (c *command) services() *app.Services {
	svc, err := app.New(c.ctx, c.cfg)
	if err != nil {
		c.log.Fatal().Err(err).Msg("Failed to create clients")
	}
	return svc
}

func (c *command) fail(svc *app.Services, err error, msg string) {
	if svc != nil {
		svc.Close()
	}
	c.stop()
	c.log.Fatal().Err(err).Str("kind", pipeline.KindOf(err).String()).Msg(msg)
}

func inputFlags(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.InputPath, "file", cfg.InputPath, "Path to local PDF file")
	fs.StringVar(&cfg.ObjectName, "object", cfg.ObjectName, "GCS object name (defaults to file name)")
}

func ocrFlags(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.OCREngine, "engine", cfg.OCREngine, "OCR engine: vision or gemini")
	fs.DurationVar(&cfg.OCRTimeout, "timeout", cfg.OCRTimeout, "Maximum wait for the OCR operation")
}

func runPipeline() {
	c := newCommand("run", func(fs *flag.FlagSet, cfg *config.Config) {
		inputFlags(fs, cfg)
		ocrFlags(fs, cfg)
		fs.StringVar(&cfg.OutputPath, "out", cfg.OutputPath, "Path of the text file to write")
	})
	defer c.stop()

	svc := c.services()
	defer svc.Close()

	state, err := pipeline.Run(c.ctx, c.cfg, svc.Deps())
	if err != nil {
		c.fail(svc, err, "Pipeline failed")
	}

	fmt.Printf("Run %s: %d result objects, %d pages with text, written to %s\n",
		state.Run.RunID, state.Assembly.Objects, state.Assembly.PagesWithText, c.cfg.OutputPath)
}

func runUpload() {
	c := newCommand("upload", inputFlags)
	defer c.stop()

	svc := c.services()
	defer svc.Close()

	if err := pipeline.EnsureBucket(c.ctx, svc.Storage, c.cfg); err != nil {
		c.fail(svc, err, "Bucket provisioning failed")
	}

	upload, err := pipeline.UploadDocument(c.ctx, svc.Storage, c.cfg)
	if err != nil {
		c.fail(svc, err, "Upload failed")
	}

	fmt.Printf("Uploaded %s to %s\n", c.cfg.InputPath, upload.URI)
}

func runDetect() {
	var inputURI string
	c := newCommand("detect", func(fs *flag.FlagSet, cfg *config.Config) {
		ocrFlags(fs, cfg)
		fs.StringVar(&inputURI, "input-uri", "", "gs:// URI of the uploaded PDF (defaults to bucket + object key)")
	})
	defer c.stop()

	input := gcs.NewURI(c.cfg.BucketName, c.cfg.ObjectKey())
	if inputURI != "" {
		parsed, err := gcs.ParseURI(inputURI)
		if err != nil {
			c.log.Fatal().Err(err).Msg("Invalid -input-uri")
		}
		input = parsed
	}

	svc := c.services()
	defer svc.Close()

	detection, err := pipeline.DetectText(c.ctx, svc.Annotator, input, c.cfg)
	if err != nil {
		c.fail(svc, err, "OCR failed")
	}

	fmt.Printf("Operation %s complete; results under %s\n", detection.OperationName, detection.OutputURI)
}

func runAssemble() {
	c := newCommand("assemble", func(fs *flag.FlagSet, cfg *config.Config) {
		fs.StringVar(&cfg.OutputPath, "out", cfg.OutputPath, "Path of the text file to write")
	})
	defer c.stop()

	svc := c.services()
	defer svc.Close()

	output := gcs.NewURI(c.cfg.BucketName, c.cfg.ResultPrefix())
	assembly, err := pipeline.AssembleText(c.ctx, svc.Storage, output, c.cfg.OutputPath)
	if err != nil {
		c.fail(svc, err, "Assembly failed")
	}

	fmt.Printf("Assembled %d result objects (%d pages with text, %d bytes) into %s\n",
		assembly.Objects, assembly.PagesWithText, assembly.Bytes, c.cfg.OutputPath)
}
