package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Default()
	cfg.ProjectID = "knesset-ocr"
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.OCRTimeout != 600*time.Second {
		t.Errorf("OCRTimeout = %s, want 10m", cfg.OCRTimeout)
	}
	if cfg.BucketLocation != "US" {
		t.Errorf("BucketLocation = %q, want US", cfg.BucketLocation)
	}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidProjectID) {
		t.Errorf("Validate() on defaults = %v, want ErrInvalidProjectID", err)
	}
}

func TestValidateProjectID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "real project", id: "gen-lang-client-0883899420", wantErr: false},
		{name: "empty", id: "", wantErr: true},
		{name: "blank", id: "   ", wantErr: true},
		{name: "placeholder", id: PlaceholderProjectID, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProjectID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateProjectID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidProjectID) {
				t.Errorf("error %v does not wrap ErrInvalidProjectID", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "gemini engine", mutate: func(c *Config) { c.OCREngine = EngineGemini }, wantErr: false},
		{name: "unknown engine", mutate: func(c *Config) { c.OCREngine = "tesseract" }, wantErr: true},
		{name: "missing bucket", mutate: func(c *Config) { c.BucketName = "" }, wantErr: true},
		{name: "missing input", mutate: func(c *Config) { c.InputPath = "" }, wantErr: true},
		{name: "missing prefix", mutate: func(c *Config) { c.OutputPrefix = "/" }, wantErr: true},
		{name: "missing output", mutate: func(c *Config) { c.OutputPath = "" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.OCRTimeout = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestObjectKey(t *testing.T) {
	cfg := validConfig()
	cfg.InputPath = filepath.Join("protocols", "session 8.pdf")
	if got := cfg.ObjectKey(); got != "session 8.pdf" {
		t.Errorf("ObjectKey() = %q, want base name", got)
	}

	cfg.ObjectName = "inputs/custom.pdf"
	if got := cfg.ObjectKey(); got != "inputs/custom.pdf" {
		t.Errorf("ObjectKey() = %q, want explicit object name", got)
	}
}

func TestResultPrefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ocr_results/", "ocr_results/"},
		{"ocr_results", "ocr_results/"},
		{"/nested/results", "nested/results/"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cfg := Config{OutputPrefix: tt.in}
			if got := cfg.ResultPrefix(); got != tt.want {
				t.Errorf("ResultPrefix() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pdf-ocr.yaml")
	content := []byte("project_id: knesset-ocr\nbucket: protocols\nocr_timeout: 2m\nocr_engine: gemini\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := Default()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.ProjectID != "knesset-ocr" || cfg.BucketName != "protocols" {
		t.Errorf("unexpected project/bucket: %q/%q", cfg.ProjectID, cfg.BucketName)
	}
	if cfg.OCRTimeout != 2*time.Minute {
		t.Errorf("OCRTimeout = %s, want 2m", cfg.OCRTimeout)
	}
	if cfg.OCREngine != EngineGemini {
		t.Errorf("OCREngine = %q, want gemini", cfg.OCREngine)
	}
	// Keys absent from the file keep their defaults.
	if cfg.OutputPath != "extracted_text.txt" {
		t.Errorf("OutputPath = %q, want default", cfg.OutputPath)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	cfg := Default()
	if err := cfg.LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pdf-ocr.yaml")
	if err := os.WriteFile(path, []byte("project_id: from-file\nbucket: file-bucket\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(ConfigPathEnv, path)
	t.Setenv("GCP_PROJECT_ID", "")
	t.Setenv("GCS_BUCKET", "env-bucket")
	t.Setenv("OCR_TIMEOUT", "90s")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ProjectID != "from-file" {
		t.Errorf("ProjectID = %q, want from-file", cfg.ProjectID)
	}
	if cfg.BucketName != "env-bucket" {
		t.Errorf("BucketName = %q, want env override", cfg.BucketName)
	}
	if cfg.OCRTimeout != 90*time.Second {
		t.Errorf("OCRTimeout = %s, want 90s", cfg.OCRTimeout)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json", cfg.LogFormat)
	}
}

func TestEnvDur_InvalidFallsBack(t *testing.T) {
	t.Setenv("OCR_TIMEOUT", "soon")
	if got := envDur("OCR_TIMEOUT", time.Minute); got != time.Minute {
		t.Errorf("envDur() = %s, want fallback", got)
	}
}
