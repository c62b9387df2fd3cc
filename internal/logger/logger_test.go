package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew(t *testing.T) {
	log := New()
	if log.GetLevel() != zerolog.InfoLevel {
		t.Errorf("Expected info level, got %s", log.GetLevel())
	}
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Msg("test message")

	if !strings.Contains(buf.String(), "test message") {
		t.Errorf("Expected output to contain 'test message', got: %s", buf.String())
	}
}

func TestNewWithOptions(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		level     string
		wantJSON  bool
		wantDebug bool
	}{
		{name: "json debug", format: "json", level: "debug", wantJSON: true, wantDebug: true},
		{name: "console info", format: "console", level: "info", wantJSON: false, wantDebug: false},
		{name: "unknown format falls back to console", format: "xml", level: "", wantJSON: false, wantDebug: false},
		{name: "upper case json", format: "JSON", level: "WARN", wantJSON: true, wantDebug: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			log := NewWithOptions(buf, tt.format, tt.level)

			log.Debug().Msg("debug line")
			log.Error().Msg("error line")

			out := buf.String()
			if got := strings.HasPrefix(out, "{"); got != tt.wantJSON {
				t.Errorf("JSON output = %v, want %v (output: %s)", got, tt.wantJSON, out)
			}
			if got := strings.Contains(out, "debug line"); got != tt.wantDebug {
				t.Errorf("debug line present = %v, want %v", got, tt.wantDebug)
			}
			if !strings.Contains(out, "error line") {
				t.Errorf("Expected error line in output, got: %s", out)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" Warn ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))

	retrieved := FromContext(ctx)
	retrieved.Info().Msg("test")

	if buf.Len() == 0 {
		t.Error("Expected log output from retrieved logger")
	}
}

func TestFromContext_DefaultLogger(t *testing.T) {
	log := FromContext(context.Background())

	if log.GetLevel() == zerolog.Disabled {
		t.Error("Expected default logger to be enabled")
	}
}

func TestWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := WithFields(NewWithWriter(buf), map[string]interface{}{
		"bucket": "ocr-bucket",
		"pages":  3,
	})
	log.Info().Msg("test message")

	out := buf.String()
	if !strings.Contains(out, `"bucket":"ocr-bucket"`) {
		t.Errorf("Expected bucket field, got: %s", out)
	}
	if !strings.Contains(out, `"pages":3`) {
		t.Errorf("Expected pages field, got: %s", out)
	}
}

func TestWithRun(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))
	ctx = WithRun(ctx, "run-123")

	log := FromContext(ctx)
	log.Info().Msg("stage done")

	if !strings.Contains(buf.String(), `"run_id":"run-123"`) {
		t.Errorf("Expected run_id field, got: %s", buf.String())
	}
}
