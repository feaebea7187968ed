// Package logging provides structured logging for chronograph components.
//
// It is built on the standard library's log/slog, writing JSON records to
// stderr by default with an optional file sink for longer-running
// operations like Watch.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level mirrors slog's severity ordering for callers that don't want to
// import log/slog directly.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config configures a Logger.
type Config struct {
	// Level is the minimum level that will be emitted. Default: LevelInfo.
	Level Level

	// LogDir, if non-empty, additionally writes JSON logs to
	// {LogDir}/{Service}_{date}.log. Supports "~" expansion.
	LogDir string

	// Service names the component for the file-log filename and for a
	// "service" field attached to every record.
	Service string
}

// Logger wraps *slog.Logger with an optional file sink that must be
// Close()'d to flush and release the file handle.
type Logger struct {
	*slog.Logger
	mu   sync.Mutex
	file *os.File
}

// Default returns a Logger writing Info+ to stderr with no file sink.
func Default() *Logger {
	return New(Config{Level: LevelInfo})
}

// New builds a Logger from Config.
func New(cfg Config) *Logger {
	writers := []io.Writer{os.Stderr}

	var file *os.File
	if cfg.LogDir != "" {
		dir := expandHome(cfg.LogDir)
		if err := os.MkdirAll(dir, 0o755); err == nil {
			name := cfg.Service
			if name == "" {
				name = "chronograph"
			}
			path := filepath.Join(dir, name+"_"+time.Now().Format("2006-01-02")+".log")
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
				file = f
				writers = append(writers, f)
			}
		}
	}

	handler := slog.NewJSONHandler(io.MultiWriter(writers...), &slog.HandlerOptions{
		Level: cfg.Level.slog(),
	})
	base := slog.New(handler)
	if cfg.Service != "" {
		base = base.With("service", cfg.Service)
	}

	return &Logger{Logger: base, file: file}
}

// Close flushes and releases the file sink, if any. Safe to call on a
// Logger with no file sink.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func expandHome(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
