package platform

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{input: "", want: slog.LevelInfo},
		{input: "info", want: slog.LevelInfo},
		{input: "debug", want: slog.LevelDebug},
		{input: "warn", want: slog.LevelWarn},
		{input: "warning", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "bad", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseLogLevel(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("expected error for %q", tt.input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", tt.input, err)
		}
		if got != tt.want {
			t.Fatalf("expected %v, got %v for %q", tt.want, got, tt.input)
		}
	}
}

func TestParseLogFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    LogFormat
		wantErr bool
	}{
		{input: "", want: LogFormatText},
		{input: "text", want: LogFormatText},
		{input: "json", want: LogFormatJSON},
		{input: "bad", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseLogFormat(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("expected error for %q", tt.input)
			}
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", tt.input, err)
		}
		if got != tt.want {
			t.Fatalf("expected %v, got %v for %q", tt.want, got, tt.input)
		}
	}
}

func TestTagWriterPrefixesLines(t *testing.T) {
	var out bytes.Buffer
	w := NewTagWriter(&out, "")

	for _, chunk := range []string{"first li", "ne\nsecond\n", "third"} {
		if _, err := w.Write([]byte(chunk)); err != nil {
			t.Fatalf("Write returned error: %v", err)
		}
	}

	want := "[envprov] first line\n[envprov] second\n[envprov] third"
	if out.String() != want {
		t.Fatalf("expected %q, got %q", want, out.String())
	}
}

func TestConfigureLoggerTagsTextOutput(t *testing.T) {
	var out bytes.Buffer
	logger, err := ConfigureLogger(LoggerOptions{Level: "warn", Out: &out, Tag: "prov"})
	if err != nil {
		t.Fatalf("ConfigureLogger returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("repository unavailable", "repository", "repoA")

	line := out.String()
	if !strings.HasPrefix(line, "[prov] ") {
		t.Fatalf("expected tag prefix, got %q", line)
	}
	if strings.Contains(line, "hidden") {
		t.Fatalf("info line must be filtered at warn level")
	}
	if !strings.Contains(line, "level=WARN") || !strings.Contains(line, "repository=repoA") {
		t.Fatalf("unexpected log line %q", line)
	}
}

func TestConfigureLoggerTraceForcesDebug(t *testing.T) {
	var out bytes.Buffer
	logger, err := ConfigureLogger(LoggerOptions{Level: "error", Out: &out, Trace: true})
	if err != nil {
		t.Fatalf("ConfigureLogger returned error: %v", err)
	}
	logger.Debug("traced")
	if !strings.Contains(out.String(), "traced") {
		t.Fatalf("expected debug output under trace, got %q", out.String())
	}
}

func TestConfigureLoggerRejectsBadLevel(t *testing.T) {
	if _, err := ConfigureLogger(LoggerOptions{Level: "loud", Out: &bytes.Buffer{}}); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}

func TestOpenLogOutputDuplicates(t *testing.T) {
	var base bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "envprov.log")

	out, closer, err := OpenLogOutput(&base, path)
	if err != nil {
		t.Fatalf("OpenLogOutput returned error: %v", err)
	}
	if _, err := out.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if string(data) != "hello\n" || base.String() != "hello\n" {
		t.Fatalf("expected output in both sinks, got file=%q base=%q", data, base.String())
	}
}

func TestOpenLogOutputWithoutPath(t *testing.T) {
	var base bytes.Buffer
	out, closer, err := OpenLogOutput(&base, " ")
	if err != nil {
		t.Fatalf("OpenLogOutput returned error: %v", err)
	}
	if out != &base {
		t.Fatalf("expected base writer to be returned")
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}
