package snapshots

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leetboard/leetboard/internal/domain/weeks"
	"github.com/leetboard/leetboard/internal/gateways/database/models"
	"github.com/leetboard/leetboard/internal/gateways/database/repositories"
	"github.com/leetboard/leetboard/internal/gateways/leetcode"
)

// TickResult summarises one snapshot run.
type TickResult struct {
	TickID    string    `json:"tick_id"`
	WeekStart time.Time `json:"week_start"`
	Count     int       `json:"count"`
	Failed    []string  `json:"failed,omitempty"`
}

// Engine captures one snapshot row per active member per ISO week. Runs are
// serialized; a manual run and a scheduled run share RunTick.
type Engine struct {
	members   repositories.MemberRepository
	snapshots repositories.SnapshotRepository
	upstream  leetcode.API
	now       func() time.Time

	mu sync.Mutex
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(members repositories.MemberRepository, snapshots repositories.SnapshotRepository, upstream leetcode.API, opts ...Option) *Engine {
	e := &Engine{
		members:   members,
		snapshots: snapshots,
		upstream:  upstream,
		now:       time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// RunTick fetches every active member and refreshes the current week. Member
// failures are logged and skipped; the returned error reports store failures
// only.
func (e *Engine) RunTick(ctx context.Context) (*TickResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := e.now()
	week := weeks.MondayOf(start)
	result := &TickResult{TickID: uuid.NewString(), WeekStart: week}

	roster, err := e.members.ListAllActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	memberships := make(map[string][]*models.Member)
	var usernames []string
	for _, m := range roster {
		if _, seen := memberships[m.Username]; !seen {
			usernames = append(usernames, m.Username)
		}
		memberships[m.Username] = append(memberships[m.Username], m)
	}

	slog.Info("Snapshot tick started",
		slog.String("type", "job"),
		slog.String("tick_id", result.TickID),
		slog.Time("week_start", week),
		slog.Int("members", len(usernames)))

	var storeErrs []error
	for _, res := range e.upstream.FetchProfiles(ctx, usernames) {
		if res.Err != nil {
			slog.Warn("Skipping member",
				slog.String("type", "job"),
				slog.String("tick_id", result.TickID),
				slog.String("username", res.Username),
				slog.Time("week_start", week),
				slog.Any("error", res.Err))
			result.Failed = append(result.Failed, res.Username)
			continue
		}

		if _, err := e.snapshots.UpsertCurrentWeek(ctx, res.Username, week, res.Profile.Totals, e.now()); err != nil {
			slog.Error("Failed to store snapshot",
				slog.String("type", "job"),
				slog.String("tick_id", result.TickID),
				slog.String("username", res.Username),
				slog.Time("week_start", week),
				slog.Any("error", err))
			result.Failed = append(result.Failed, res.Username)
			storeErrs = append(storeErrs, err)
			continue
		}
		result.Count++

		e.refreshProfile(ctx, memberships[res.Username], res.Profile)
	}

	// every upsert above happens before ranks are assigned
	if err := e.snapshots.AssignRanks(ctx, week); err != nil {
		storeErrs = append(storeErrs, fmt.Errorf("failed to assign ranks: %w", err))
	}

	slog.Info("Snapshot tick finished",
		slog.String("type", "job"),
		slog.String("tick_id", result.TickID),
		slog.Time("week_start", week),
		slog.Int("count", result.Count),
		slog.Int("failed", len(result.Failed)),
		slog.Duration("took", time.Since(start)))

	return result, errors.Join(storeErrs...)
}

// CaptureMember writes a baseline row for one member in the current week.
func (e *Engine) CaptureMember(ctx context.Context, username string) (*models.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	profile, err := e.upstream.FetchProfile(ctx, username)
	if err != nil {
		return nil, err
	}

	now := e.now()
	week := weeks.MondayOf(now)
	snap, err := e.snapshots.UpsertCurrentWeek(ctx, username, week, profile.Totals, now)
	if err != nil {
		return nil, fmt.Errorf("failed to store baseline: %w", err)
	}
	if err := e.snapshots.AssignRanks(ctx, week); err != nil {
		return nil, fmt.Errorf("failed to assign ranks: %w", err)
	}

	slog.Info("Baseline captured",
		slog.String("type", "job"),
		slog.String("username", username),
		slog.Time("week_start", week),
		slog.Int("total", profile.Totals.Total))
	return snap, nil
}

func (e *Engine) refreshProfile(ctx context.Context, memberships []*models.Member, profile *leetcode.Profile) {
	for _, m := range memberships {
		name := profile.DisplayName
		if name == "" {
			name = m.Name
		}
		sameAvatar := (m.Avatar == nil && profile.Avatar == "") || (m.Avatar != nil && *m.Avatar == profile.Avatar)
		if name == m.Name && sameAvatar {
			continue
		}

		var avatar *string
		if profile.Avatar != "" {
			avatar = &profile.Avatar
		}
		if err := e.members.UpdateProfile(ctx, m.TeamOwner, m.Username, name, avatar); err != nil {
			slog.Warn("Failed to refresh member profile",
				slog.String("type", "job"),
				slog.String("username", m.Username),
				slog.Any("error", err))
		}
	}
}
