package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// Stderr logs to standard error instead of a dated file in Dir. The TUI
	// owns the terminal, so it always logs to a file.
	Stderr bool
	// Dir overrides StateDir for the log file.
	Dir string
}

// Setup creates a slog.Logger tagged with a fresh boot id. When logging to a
// file, the caller is responsible for closing the returned closer.
func Setup(opts Options) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	var (
		w      io.Writer = os.Stderr
		closer io.Closer = io.NopCloser(nil)
	)
	if !opts.Stderr {
		dir := opts.Dir
		if dir == "" {
			if dir, err = StateDir(); err != nil {
				return nil, nil, fmt.Errorf("state dir: %w", err)
			}
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create state dir: %w", err)
		}
		path := filepath.Join(dir, fmt.Sprintf("pocketshuffle-%s.log", time.Now().Format("20060102")))
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	}
	return New(w, level), closer, nil
}

// New builds a text logger on w with a boot id attribute.
func New(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("boot", uuid.NewString()))
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// StateDir returns the host state directory (~/.config/pocketshuffle/state).
func StateDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pocketshuffle", "state"), nil
}
