package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/crucial707/birthday-service/internal/config"
	slogmulti "github.com/samber/slog-multi"
)

// newLogger builds the console handler selected by LOG_FORMAT and, with LOG_FILE set,
// fans every record out to a JSON log file as well.
func newLogger(cfg config.Config) (*slog.Logger, func() error, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var console slog.Handler
	if cfg.LogFormat == "json" {
		console = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		console = slog.NewTextHandler(os.Stdout, opts)
	}
	if cfg.LogFile == "" {
		return slog.New(console), func() error { return nil }, nil
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	handler := slogmulti.Fanout(console, slog.NewJSONHandler(f, opts))
	return slog.New(handler), f.Close, nil
}
