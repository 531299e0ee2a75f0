// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package observability builds the structured logger and Prometheus
// metrics shared by the monitor's stages.
package observability

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/scholar-monitor/pkg/types"
)

// NewLogger builds a zerolog logger writing to out. Format "json" emits one
// JSON object per line; anything else uses the console writer. files, such
// as the daily log, always receive JSON.
func NewLogger(cfg types.LoggingConfig, out io.Writer, files ...io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	if !strings.EqualFold(cfg.Format, "json") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	if len(files) > 0 {
		out = zerolog.MultiLevelWriter(append([]io.Writer{out}, files...)...)
	}
	return zerolog.New(out).With().Timestamp().Logger().Level(ParseLevel(cfg.Level))
}

// OpenDailyLog opens (appending) dir/scholar_monitor_<YYYYMMDD>.log for the
// date of now. The caller closes the file.
func OpenDailyLog(dir string, now time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	name := filepath.Join(dir, fmt.Sprintf("scholar_monitor_%s.log", now.Format("20060102")))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// ParseLevel converts a level name to zerolog.Level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithPaper adds seed/paper fields to a logger.
func WithPaper(logger zerolog.Logger, title string) zerolog.Logger {
	if len(title) > 80 {
		title = title[:80]
	}
	return logger.With().Str("paper", title).Logger()
}
