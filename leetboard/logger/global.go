package logger

import (
	"log/slog"
	"time"
)

// LogCommand logs command execution
func LogCommand(name string, duration time.Duration, err error) {
	attrs := []any{
		slog.String("type", "cmd"),
		slog.String("name", name),
		slog.Duration("took", duration),
	}

	if err != nil {
		slog.Error("Command failed", append(attrs, slog.Any("error", err))...)
	} else {
		slog.Info("Command executed", attrs...)
	}
}

// LogJob logs the outcome of a scheduled job
func LogJob(name string, duration time.Duration, err error, attrs ...any) {
	base := []any{
		slog.String("type", "job"),
		slog.String("job", name),
		slog.Duration("took", duration),
	}
	if err != nil {
		slog.Error("Job failed", append(append(base, slog.Any("error", err)), attrs...)...)
		return
	}
	slog.Info("Job completed", append(base, attrs...)...)
}

// LogSystem logs system events
func LogSystem(msg string, attrs ...any) {
	baseAttrs := []any{slog.String("type", "sys")}
	slog.Info(msg, append(baseAttrs, attrs...)...)
}

// LogError logs error events
func LogError(msg string, err error, attrs ...any) {
	baseAttrs := []any{
		slog.String("type", "error"),
		slog.Any("error", err),
	}
	slog.Error(msg, append(baseAttrs, attrs...)...)
}
