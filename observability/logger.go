// CLAUDE:SUMMARY slog logger factory: text or JSON on stderr, optional lumberjack-rotated file copy, cron logger adapter.
// Package observability builds the process logger. Everything else takes a
// *slog.Logger through its constructor.
package observability

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig configures NewLogger.
type LogConfig struct {
	// Level is debug, info, warn or error. Empty means info.
	Level string
	// Format is text or json. Empty means text.
	Format string
	// File, when set, receives a copy of every record, rotated by size.
	File string

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Output overrides stderr. Tests use it.
	Output io.Writer
}

// Logger is a configured slog.Logger plus the rotation writer it owns.
type Logger struct {
	*slog.Logger
	file *lumberjack.Logger
}

// NewLogger builds the logger described by cfg.
func NewLogger(cfg LogConfig) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var out io.Writer = os.Stderr
	if cfg.Output != nil {
		out = cfg.Output
	}

	l := &Logger{}
	if cfg.File != "" {
		if dir := filepath.Dir(cfg.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("observability: log dir: %w", err)
			}
		}
		l.file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, 10),
			MaxBackups: orDefault(cfg.MaxBackups, 5),
			MaxAge:     orDefault(cfg.MaxAgeDays, 30),
			Compress:   true,
		}
		out = io.MultiWriter(out, l.file)
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		h = slog.NewTextHandler(out, opts)
	case "json":
		h = slog.NewJSONHandler(out, opts)
	default:
		return nil, fmt.Errorf("observability: unknown log format %q", cfg.Format)
	}
	l.Logger = slog.New(h)
	return l, nil
}

// Close flushes and closes the rotated file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// ParseLevel maps a level name to slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("observability: unknown log level %q", s)
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
