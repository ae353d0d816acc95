package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/agentstation/pocketflow/internal/config"
)

// newLogger builds the application logger from cfg. Logs go to w and, when
// cfg.File is set, are appended to that file too. The returned func closes
// the file.
func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, func(), error) {
	var level slog.Level
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}

	closeFn := func() {}
	if cfg.File != "" {
		path, err := expandPath(cfg.File)
		if err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec // path comes from the operator
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = io.MultiWriter(w, f)
		closeFn = func() { _ = f.Close() }
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch cfg.Format {
	case jsonFormat:
		h = slog.NewJSONHandler(w, opts)
	case textFormat, "":
		h = slog.NewTextHandler(w, opts)
	default:
		closeFn()
		return nil, nil, fmt.Errorf("invalid log format %q (want text or json)", cfg.Format)
	}
	return slog.New(h), closeFn, nil
}
