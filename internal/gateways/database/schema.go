package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leetboard/leetboard/internal/gateways/database/models"
)

// InitializeSchema creates all required database tables and indexes. It is
// safe to call on every start.
func (db *DB) InitializeSchema(ctx context.Context) error {
	tables := []interface{}{
		(*models.Member)(nil),
		(*models.Snapshot)(nil),
		(*models.LastState)(nil),
		(*models.Notification)(nil),
		(*models.SystemSetting)(nil),
		(*models.APICache)(nil),
	}

	for _, model := range tables {
		_, err := db.bunDB.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []struct {
		model   interface{}
		name    string
		columns []string
	}{
		{(*models.Snapshot)(nil), "idx_snapshots_username", []string{"username"}},
		{(*models.Snapshot)(nil), "idx_snapshots_week_start", []string{"week_start"}},
		{(*models.Member)(nil), "idx_members_team_status", []string{"team_owner", "status"}},
		{(*models.Notification)(nil), "idx_notifications_created_at", []string{"created_at"}},
		{(*models.Notification)(nil), "idx_notifications_status", []string{"status"}},
	}

	for _, idx := range indexes {
		_, err := db.bunDB.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.columns...).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	slog.Info("Database schema initialized",
		slog.String("type", "db"),
		slog.String("driver", db.driver),
		slog.Int("tables", len(tables)),
		slog.Int("indexes", len(indexes)))
	return nil
}

// ResetAppTables removes every row from the application tables.
// system_settings is kept.
func (db *DB) ResetAppTables(ctx context.Context) error {
	for _, model := range []interface{}{
		(*models.Notification)(nil),
		(*models.LastState)(nil),
		(*models.Snapshot)(nil),
		(*models.Member)(nil),
		(*models.APICache)(nil),
	} {
		if _, err := db.bunDB.NewDelete().Model(model).Where("1 = 1").Exec(ctx); err != nil {
			return fmt.Errorf("failed to reset tables: %w", err)
		}
	}
	slog.Info("App tables reset", slog.String("type", "db"))
	return nil
}
