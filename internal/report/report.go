// Package report publishes the summary of a completed birthday scan to operators.
package report

import (
	"context"
	"errors"
	"log/slog"

	"github.com/crucial707/birthday-service/internal/birthday"
)

// Multi emits to every emitter in order. One failure does not stop the others.
type Multi []birthday.Emitter

func (m Multi) Emit(ctx context.Context, r birthday.Report) error {
	var errs []error
	for _, e := range m {
		if err := e.Emit(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogEmitter writes the report to the structured log. It never fails.
type LogEmitter struct {
	Logger *slog.Logger
}

func (l *LogEmitter) Emit(ctx context.Context, r birthday.Report) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, r.Summary(),
		"run_id", r.RunID,
		"target_date", birthday.FormatDate(r.TargetDate),
		"total", r.Total(),
		"succeeded", r.Succeeded,
		"failed", r.Failed,
		"duration_seconds", r.DurationSeconds(),
	)
	return nil
}
