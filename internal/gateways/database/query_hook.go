package database

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
)

// QueryHook logs every statement bun executes. Successful queries go to debug
// unless verbose is set; failures are always logged at error level.
type QueryHook struct {
	verbose bool
}

var _ bun.QueryHook = (*QueryHook)(nil)

func NewQueryHook(verbose bool) *QueryHook {
	return &QueryHook{verbose: verbose}
}

func (h *QueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	duration := time.Since(event.StartTime)

	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		slog.Error("Query failed",
			slog.String("type", "db"),
			slog.String("operation", event.Operation()),
			slog.String("query", event.Query),
			slog.Duration("took", duration),
			slog.Any("error", event.Err),
		)
		return
	}

	level := slog.LevelDebug
	if h.verbose {
		level = slog.LevelInfo
	}
	attrs := []any{
		slog.String("type", "db"),
		slog.String("operation", event.Operation()),
		slog.String("query", event.Query),
		slog.Duration("took", duration),
	}
	if event.Result != nil {
		if n, err := event.Result.RowsAffected(); err == nil {
			attrs = append(attrs, slog.Int64("affected_rows", n))
		}
	}
	slog.Log(ctx, level, "Query executed", attrs...)
}
