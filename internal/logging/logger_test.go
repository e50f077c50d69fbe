package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v want %v", tt.input, got, tt.want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestConsoleAndFileSinks(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "rock.log")
	logger, closer, err := New(Config{Level: "info", File: path, Console: &console})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Debug().Msg("hidden")
	logger.Info().Int("day", 2).Msg("next day")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if !strings.Contains(console.String(), "next day") {
		t.Fatalf("console missing message: %q", console.String())
	}
	if strings.Contains(console.String(), "hidden") {
		t.Fatalf("debug line should be filtered: %q", console.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"day":2`) {
		t.Fatalf("file missing structured field: %q", string(data))
	}
}
