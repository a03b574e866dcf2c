package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leetboard/leetboard/internal/domain/analytics"
	"github.com/leetboard/leetboard/internal/domain/notifications"
	"github.com/leetboard/leetboard/internal/gateways/database/models"
)

type TeamLister interface {
	Teams(ctx context.Context) ([]string, error)
}

type WeekOverWeekSource interface {
	WeekOverWeek(ctx context.Context, team string, k int) ([]analytics.WeekOverWeek, error)
}

type Emitter interface {
	Emit(ctx context.Context, ev notifications.Event) (*models.Notification, error)
}

// Digest emits one daily_digest notification per team with the current
// week-over-week standings.
type Digest struct {
	teams     TeamLister
	analytics WeekOverWeekSource
	emitter   Emitter
}

func NewDigest(teams TeamLister, analytics WeekOverWeekSource, emitter Emitter) *Digest {
	return &Digest{teams: teams, analytics: analytics, emitter: emitter}
}

// Run returns the number of digests emitted. A failing team is logged and
// skipped.
func (d *Digest) Run(ctx context.Context) (int, error) {
	teams, err := d.teams.Teams(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list teams: %w", err)
	}

	sent := 0
	for _, team := range teams {
		records, err := d.analytics.WeekOverWeek(ctx, team, 1)
		if err != nil {
			slog.Warn("Skipping digest",
				slog.String("type", "job"),
				slog.String("team", team),
				slog.Any("error", err))
			continue
		}
		if len(records) == 0 {
			continue
		}

		if _, err := d.emitter.Emit(ctx, digestEvent(team, records)); err != nil {
			slog.Error("Failed to emit digest",
				slog.String("type", "job"),
				slog.String("team", team),
				slog.Any("error", err))
			continue
		}
		sent++
	}
	return sent, nil
}

func digestEvent(team string, records []analytics.WeekOverWeek) notifications.Event {
	var b strings.Builder
	solved := 0
	for _, r := range records {
		solved += r.Delta
		fmt.Fprintf(&b, "%d. %s %d (%+d, %s)\n", r.Rank, r.Name, r.Current, r.Delta, rankMove(r))
	}

	return notifications.Event{
		Kind:      notifications.KindDailyDigest,
		Title:     fmt.Sprintf("Week of %s: %d solved so far", records[0].Week, solved),
		Body:      strings.TrimRight(b.String(), "\n"),
		Recipient: team,
		Metadata: map[string]interface{}{
			"week":    records[0].Week,
			"members": len(records),
			"leader":  records[0].Member,
			"solved":  solved,
		},
	}
}

func rankMove(r analytics.WeekOverWeek) string {
	switch {
	case r.PreviousRank == nil:
		return "new"
	case r.RankDelta > 0:
		return fmt.Sprintf("up %d", r.RankDelta)
	case r.RankDelta < 0:
		return fmt.Sprintf("down %d", -r.RankDelta)
	default:
		return "="
	}
}
