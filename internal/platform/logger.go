package platform

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

const DefaultLogTag = "envprov"

type LoggerOptions struct {
	Level  string
	Format string
	Out    io.Writer
	Tag    string
	// Trace forces debug level regardless of Level.
	Trace bool
}

func ConfigureLogger(opts LoggerOptions) (*slog.Logger, error) {
	level, err := ParseLogLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if opts.Trace {
		level = slog.LevelDebug
	}

	format, err := ParseLogFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch format {
	case LogFormatJSON:
		handler = slog.NewJSONHandler(out, handlerOpts)
	case LogFormatText:
		handler = slog.NewTextHandler(NewTagWriter(out, opts.Tag), handlerOpts)
	default:
		return nil, fmt.Errorf("unsupported log format %q", opts.Format)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}

func ParseLogLevel(value string) (slog.Level, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	switch value {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", value)
	}
}

func ParseLogFormat(value string) (LogFormat, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	switch value {
	case "", string(LogFormatText):
		return LogFormatText, nil
	case string(LogFormatJSON):
		return LogFormatJSON, nil
	default:
		return LogFormatText, fmt.Errorf("invalid log format %q", value)
	}
}

// TagWriter prefixes every line written through it with "[tag] ". Writes may
// split lines arbitrarily; it is safe for concurrent use.
type TagWriter struct {
	mu          sync.Mutex
	out         io.Writer
	prefix      []byte
	atLineStart bool
}

func NewTagWriter(out io.Writer, tag string) *TagWriter {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		tag = DefaultLogTag
	}
	return &TagWriter{out: out, prefix: []byte("[" + tag + "] "), atLineStart: true}
}

func (w *TagWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var buf bytes.Buffer
	rest := p
	for len(rest) > 0 {
		if w.atLineStart {
			buf.Write(w.prefix)
			w.atLineStart = false
		}
		idx := bytes.IndexByte(rest, '\n')
		if idx < 0 {
			buf.Write(rest)
			break
		}
		buf.Write(rest[:idx+1])
		rest = rest[idx+1:]
		w.atLineStart = true
	}
	if _, err := w.out.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}

// OpenLogOutput duplicates base into the file at path, appending. An empty
// path returns base unchanged with a no-op closer.
func OpenLogOutput(base io.Writer, path string) (io.Writer, io.Closer, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return base, nopCloser{}, nil
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return io.MultiWriter(base, file), file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
