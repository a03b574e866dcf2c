package repositories

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/uptrace/bun"

	"github.com/leetboard/leetboard/internal/gateways/database/models"
	"github.com/leetboard/leetboard/leetboard/config"
)

// SnapshotRepository is the weekly snapshot ledger. Rows are unique per
// (username, week_start); week_start is always a UTC Monday.
type SnapshotRepository interface {
	UpsertCurrentWeek(ctx context.Context, username string, week time.Time, totals models.Totals, capturedAt time.Time) (*models.Snapshot, error)
	InsertIfAbsent(ctx context.Context, snapshot *models.Snapshot) (bool, error)
	Get(ctx context.Context, username string, week time.Time) (*models.Snapshot, error)
	Latest(ctx context.Context, username string) (*models.Snapshot, error)
	LatestBefore(ctx context.Context, username string, week time.Time) (*models.Snapshot, error)
	LatestAtOrBefore(ctx context.Context, username string, week time.Time) (*models.Snapshot, error)
	ListForMember(ctx context.Context, username string) ([]*models.Snapshot, error)
	Range(ctx context.Context, usernames []string, from, to time.Time) ([]*models.Snapshot, error)
	ListWeek(ctx context.Context, week time.Time) ([]*models.Snapshot, error)
	History(ctx context.Context, usernames []string, limit int) ([]*models.Snapshot, error)
	All(ctx context.Context) ([]*models.Snapshot, error)
	AssignRanks(ctx context.Context, week time.Time) error
}

type snapshotRepository struct {
	*BaseRepository
}

func NewSnapshotRepository(db *bun.DB) SnapshotRepository {
	return &snapshotRepository{BaseRepository: NewBaseRepository(db)}
}

// UpsertCurrentWeek writes the totals for (username, week). An existing row
// keeps its rank and its captured_at never moves backwards.
func (r *snapshotRepository) UpsertCurrentWeek(ctx context.Context, username string, week time.Time, totals models.Totals, capturedAt time.Time) (*models.Snapshot, error) {
	week = week.UTC()
	capturedAt = capturedAt.UTC()

	var out *models.Snapshot
	err := r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		existing := new(models.Snapshot)
		err := tx.NewSelect().
			Model(existing).
			Where("username = ?", username).
			Where("week_start = ?", week).
			Limit(1).
			Scan(ctx)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			row := &models.Snapshot{
				Username:   username,
				WeekStart:  week,
				CapturedAt: capturedAt,
			}
			row.SetTotals(totals)
			if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
				return err
			}
			out = row
			return nil
		case err != nil:
			return err
		}

		existing.SetTotals(totals)
		if capturedAt.After(existing.CapturedAt) {
			existing.CapturedAt = capturedAt
		}
		_, err = tx.NewUpdate().
			Model(existing).
			Column("total_solved", "easy", "medium", "hard", "timestamp").
			WherePK().
			Exec(ctx)
		if err != nil {
			return err
		}
		out = existing
		return nil
	})
	if err != nil {
		return nil, r.HandleErrorWithID("upsert", "snapshot", username, err)
	}
	return out, nil
}

// InsertIfAbsent writes a row only when (username, week_start) has none. It
// reports whether a row was written.
func (r *snapshotRepository) InsertIfAbsent(ctx context.Context, snapshot *models.Snapshot) (bool, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	snapshot.WeekStart = snapshot.WeekStart.UTC()
	snapshot.CapturedAt = snapshot.CapturedAt.UTC()

	res, err := r.db.NewInsert().
		Model(snapshot).
		On("CONFLICT (username, week_start) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, r.HandleErrorWithID("insert_if_absent", "snapshot", snapshot.Username, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *snapshotRepository) Get(ctx context.Context, username string, week time.Time) (*models.Snapshot, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	snap := new(models.Snapshot)
	err := r.db.NewSelect().
		Model(snap).
		Where("username = ?", username).
		Where("week_start = ?", week.UTC()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "snapshot", username, err)
	}
	return snap, nil
}

func (r *snapshotRepository) Latest(ctx context.Context, username string) (*models.Snapshot, error) {
	return r.latest(ctx, username, "", time.Time{})
}

// LatestBefore returns the most recent row strictly before week.
func (r *snapshotRepository) LatestBefore(ctx context.Context, username string, week time.Time) (*models.Snapshot, error) {
	return r.latest(ctx, username, "week_start < ?", week.UTC())
}

func (r *snapshotRepository) LatestAtOrBefore(ctx context.Context, username string, week time.Time) (*models.Snapshot, error) {
	return r.latest(ctx, username, "week_start <= ?", week.UTC())
}

func (r *snapshotRepository) latest(ctx context.Context, username, cond string, week time.Time) (*models.Snapshot, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	snap := new(models.Snapshot)
	q := r.db.NewSelect().
		Model(snap).
		Where("username = ?", username)
	if cond != "" {
		q = q.Where(cond, week)
	}
	err := q.Order("week_start DESC").Limit(1).Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("latest", "snapshot", username, err)
	}
	return snap, nil
}

// ListForMember returns every row for username, oldest first.
func (r *snapshotRepository) ListForMember(ctx context.Context, username string) ([]*models.Snapshot, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var snaps []*models.Snapshot
	err := r.db.NewSelect().
		Model(&snaps).
		Where("username = ?", username).
		Order("week_start ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("list_for_member", "snapshot", err)
	}
	return snaps, nil
}

// Range returns rows for usernames with from <= week_start <= to, ordered by
// week then username.
func (r *snapshotRepository) Range(ctx context.Context, usernames []string, from, to time.Time) ([]*models.Snapshot, error) {
	if len(usernames) == 0 {
		return nil, nil
	}

	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var snaps []*models.Snapshot
	err := r.db.NewSelect().
		Model(&snaps).
		Where("username IN (?)", bun.In(usernames)).
		Where("week_start >= ?", from.UTC()).
		Where("week_start <= ?", to.UTC()).
		Order("week_start ASC", "username ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("range", "snapshot", err)
	}
	return snaps, nil
}

func (r *snapshotRepository) ListWeek(ctx context.Context, week time.Time) ([]*models.Snapshot, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var snaps []*models.Snapshot
	err := r.db.NewSelect().
		Model(&snaps).
		Where("week_start = ?", week.UTC()).
		Order("username ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("list_week", "snapshot", err)
	}
	return snaps, nil
}

// History returns the newest rows for usernames, newest week first.
func (r *snapshotRepository) History(ctx context.Context, usernames []string, limit int) ([]*models.Snapshot, error) {
	if len(usernames) == 0 {
		return nil, nil
	}

	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var snaps []*models.Snapshot
	q := r.db.NewSelect().
		Model(&snaps).
		Where("username IN (?)", bun.In(usernames)).
		Order("week_start DESC", "username ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, r.HandleError("history", "snapshot", err)
	}
	return snaps, nil
}

func (r *snapshotRepository) All(ctx context.Context) ([]*models.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, config.BatchQueryTimeout)
	defer cancel()

	var snaps []*models.Snapshot
	err := r.db.NewSelect().
		Model(&snaps).
		Order("week_start ASC", "username ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("all", "snapshot", err)
	}
	return snaps, nil
}

// AssignRanks numbers every row of week 1..n by total descending, ties broken
// by username ascending. The whole week is rewritten in one transaction.
func (r *snapshotRepository) AssignRanks(ctx context.Context, week time.Time) error {
	week = week.UTC()

	err := r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		var snaps []*models.Snapshot
		if err := tx.NewSelect().
			Model(&snaps).
			Where("week_start = ?", week).
			Scan(ctx); err != nil {
			return err
		}

		sort.Slice(snaps, func(i, j int) bool {
			if snaps[i].Total != snaps[j].Total {
				return snaps[i].Total > snaps[j].Total
			}
			return snaps[i].Username < snaps[j].Username
		})

		for i, snap := range snaps {
			rank := i + 1
			if snap.Rank != nil && *snap.Rank == rank {
				continue
			}
			if _, err := tx.NewUpdate().
				Model((*models.Snapshot)(nil)).
				Set("rank = ?", rank).
				Where("id = ?", snap.ID).
				Exec(ctx); err != nil {
				return err
			}
		}

		slog.Debug("Ranks assigned",
			slog.String("type", "db"),
			slog.Time("week_start", week),
			slog.Int("rows", len(snaps)))
		return nil
	})
	return r.HandleError("assign_ranks", "snapshot", err)
}
