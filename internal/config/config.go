package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// PlaceholderProjectID is the value shipped in sample configs; it is never a real project.
const PlaceholderProjectID = "YOUR_GCP_PROJECT_ID"

// OCR engines.
const (
	EngineVision = "vision"
	EngineGemini = "gemini"
)

// ConfigPathEnv names the environment variable holding an optional YAML config path.
const ConfigPathEnv = "PDF_OCR_CONFIG"

// ErrInvalidProjectID is returned when the project id is empty or still the placeholder.
var ErrInvalidProjectID = errors.New("project id is missing or invalid")

// Config carries every setting the pipeline stages need.
type Config struct {
	ProjectID      string `yaml:"project_id"`
	BucketName     string `yaml:"bucket"`
	BucketLocation string `yaml:"bucket_location"`

	InputPath    string `yaml:"input_path"`
	ObjectName   string `yaml:"object_name"`
	OutputPrefix string `yaml:"output_prefix"`
	OutputPath   string `yaml:"output_path"`

	OCREngine      string        `yaml:"ocr_engine"`
	OCRTimeout     time.Duration `yaml:"ocr_timeout"`
	VisionLocation string        `yaml:"vision_location"`
	GeminiModel    string        `yaml:"gemini_model"`
	GeminiLocation string        `yaml:"gemini_location"`

	// Run audit table; disabled when RunsDataset is empty.
	RunsDataset string `yaml:"runs_dataset"`
	RunsTable   string `yaml:"runs_table"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the compiled-in configuration.
func Default() Config {
	return Config{
		ProjectID:      PlaceholderProjectID,
		BucketName:     "pdf-ocr-documents",
		BucketLocation: "US",

		InputPath:    "document.pdf",
		OutputPrefix: "ocr_results/",
		OutputPath:   "extracted_text.txt",

		OCREngine:   EngineVision,
		OCRTimeout:  600 * time.Second,
		GeminiModel: "gemini-2.5-flash",

		GeminiLocation: "us-central1",
		RunsTable:      "ocr_runs",

		LogLevel:  "info",
		LogFormat: "console",
	}
}

// Load builds the effective configuration: defaults, then the YAML file named by
// PDF_OCR_CONFIG (if set), then environment overrides.
func Load() (Config, error) {
	cfg := Default()
	if path := envStr(ConfigPathEnv, ""); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// LoadFile overlays the YAML file at path onto c. Keys absent from the file keep their values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %q: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays non-empty environment variables onto c.
func (c *Config) ApplyEnv() {
	c.ProjectID = envStr("GCP_PROJECT_ID", c.ProjectID)
	c.BucketName = envStr("GCS_BUCKET", c.BucketName)
	c.BucketLocation = envStr("GCS_BUCKET_LOCATION", c.BucketLocation)

	c.InputPath = envStr("INPUT_PDF", c.InputPath)
	c.ObjectName = envStr("GCS_OBJECT_NAME", c.ObjectName)
	c.OutputPrefix = envStr("GCS_OUTPUT_PREFIX", c.OutputPrefix)
	c.OutputPath = envStr("OUTPUT_TEXT", c.OutputPath)

	c.OCREngine = envStr("OCR_ENGINE", c.OCREngine)
	c.OCRTimeout = envDur("OCR_TIMEOUT", c.OCRTimeout)
	c.VisionLocation = envStr("VISION_LOCATION", c.VisionLocation)
	c.GeminiModel = envStr("GEMINI_MODEL", c.GeminiModel)
	c.GeminiLocation = envStr("GEMINI_LOCATION", c.GeminiLocation)

	c.RunsDataset = envStr("RUNS_DATASET", c.RunsDataset)
	c.RunsTable = envStr("RUNS_TABLE", c.RunsTable)

	c.LogLevel = envStr("LOG_LEVEL", c.LogLevel)
	c.LogFormat = envStr("LOG_FORMAT", c.LogFormat)
}

// ObjectKey is the remote key for the input document.
func (c Config) ObjectKey() string {
	if c.ObjectName != "" {
		return c.ObjectName
	}
	return filepath.Base(c.InputPath)
}

// ResultPrefix is the output prefix, always ending in "/".
func (c Config) ResultPrefix() string {
	p := strings.TrimLeft(c.OutputPrefix, "/")
	if p != "" && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

// ValidateProjectID rejects an empty or placeholder project id.
func ValidateProjectID(projectID string) error {
	id := strings.TrimSpace(projectID)
	if id == "" || id == PlaceholderProjectID {
		return fmt.Errorf("%w: %q", ErrInvalidProjectID, projectID)
	}
	return nil
}

// Validate checks the settings every run needs.
func (c Config) Validate() error {
	if err := ValidateProjectID(c.ProjectID); err != nil {
		return err
	}
	if strings.TrimSpace(c.BucketName) == "" {
		return fmt.Errorf("bucket name must be set")
	}
	if strings.TrimSpace(c.InputPath) == "" {
		return fmt.Errorf("input path must be set")
	}
	if c.ResultPrefix() == "" {
		return fmt.Errorf("output prefix must be set")
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		return fmt.Errorf("output path must be set")
	}
	if c.OCRTimeout <= 0 {
		return fmt.Errorf("ocr timeout must be positive, got %s", c.OCRTimeout)
	}
	switch c.OCREngine {
	case EngineVision, EngineGemini:
	default:
		return fmt.Errorf("unknown ocr engine %q (want %q or %q)", c.OCREngine, EngineVision, EngineGemini)
	}
	return nil
}

func envStr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDur(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
