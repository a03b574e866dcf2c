package streaks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leetboard/leetboard/internal/domain/notifications"
	"github.com/leetboard/leetboard/internal/domain/weeks"
	"github.com/leetboard/leetboard/internal/gateways/database/models"
	"github.com/leetboard/leetboard/internal/gateways/database/repositories"
	"github.com/leetboard/leetboard/internal/gateways/leetcode"
	"github.com/leetboard/leetboard/leetboard/config"
)

// Emitter stores a batch of events atomically and delivers them.
type Emitter interface {
	EmitAll(ctx context.Context, evs []notifications.Event) ([]*models.Notification, error)
}

type TickResult struct {
	TickID   string   `json:"tick_id"`
	Observed int      `json:"observed"`
	Events   int      `json:"events"`
	Failed   []string `json:"failed,omitempty"`
}

// Detector compares each fetch against the member's LastState and emits the
// resulting events. LastState only moves after its events were stored.
type Detector struct {
	members   repositories.MemberRepository
	snapshots repositories.SnapshotRepository
	states    repositories.LastStateRepository
	upstream  leetcode.API
	emitter   Emitter
	now       func() time.Time

	mu sync.Mutex
}

type Option func(*Detector)

func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

func NewDetector(
	members repositories.MemberRepository,
	snapshots repositories.SnapshotRepository,
	states repositories.LastStateRepository,
	upstream leetcode.API,
	emitter Emitter,
	opts ...Option,
) *Detector {
	d := &Detector{
		members:   members,
		snapshots: snapshots,
		states:    states,
		upstream:  upstream,
		emitter:   emitter,
		now:       time.Now,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Tick observes every active member once.
func (d *Detector) Tick(ctx context.Context) (*TickResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	tickTime := d.now().UTC()
	result := &TickResult{TickID: uuid.NewString()}

	roster, err := d.members.ListAllActive(ctx)
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

	for _, res := range d.upstream.FetchProfiles(ctx, usernames) {
		if res.Err != nil {
			slog.Warn("Skipping member",
				slog.String("type", "job"),
				slog.String("tick_id", result.TickID),
				slog.String("username", res.Username),
				slog.Any("error", res.Err))
			result.Failed = append(result.Failed, res.Username)
			continue
		}
		result.Observed++

		history, err := d.snapshots.ListForMember(ctx, res.Username)
		if err != nil {
			slog.Error("Failed to load snapshots",
				slog.String("type", "db"),
				slog.String("username", res.Username),
				slog.Any("error", err))
			result.Failed = append(result.Failed, res.Username)
			continue
		}
		streak := Compute(history, weeks.MondayOf(tickTime))

		username := res.Username
		solvedAt := sync.OnceValue(func() time.Time { return d.latestAccepted(ctx, username, tickTime) })
		for _, m := range memberships[res.Username] {
			n, err := d.observe(ctx, result.TickID, tickTime, m, res.Profile.Totals, streak, solvedAt)
			result.Events += n
			if err != nil {
				slog.Error("Failed to process observation",
					slog.String("type", "job"),
					slog.String("tick_id", result.TickID),
					slog.String("team", m.TeamOwner),
					slog.String("username", m.Username),
					slog.Any("error", err))
				result.Failed = append(result.Failed, res.Username)
			}
		}
	}

	slog.Info("Fetch tick finished",
		slog.String("type", "job"),
		slog.String("tick_id", result.TickID),
		slog.Int("observed", result.Observed),
		slog.Int("events", result.Events),
		slog.Int("failed", len(result.Failed)))
	return result, nil
}

func (d *Detector) observe(ctx context.Context, tickID string, tickTime time.Time, m *models.Member, cur models.Totals, streak Streak, solvedAt func() time.Time) (int, error) {
	next := &models.LastState{
		Owner:         m.TeamOwner,
		Member:        m.Username,
		Total:         cur.Total,
		Easy:          cur.Easy,
		Medium:        cur.Medium,
		Hard:          cur.Hard,
		StreakStatus:  string(streak.Status),
		CurrentStreak: streak.Current,
		ObservedAt:    tickTime,
	}

	prev, err := d.states.Get(ctx, m.TeamOwner, m.Username)
	if repositories.IsNotFound(err) {
		// first observation is the baseline
		return 0, d.states.Upsert(ctx, next)
	}
	if err != nil {
		return 0, err
	}

	events := Diff(m, prev, cur, streak)
	for i := range events {
		at := tickTime
		if events[i].Kind == notifications.KindNewSolves {
			at = solvedAt()
		}
		events[i].Metadata["occurred_at"] = at.Format(time.RFC3339)
		events[i].Metadata["tick_id"] = tickID
	}

	// all of a member's events land together, so a retry off the same prev
	// cannot duplicate part of them
	if _, err := d.emitter.EmitAll(ctx, events); err != nil {
		return 0, fmt.Errorf("failed to emit %d events: %w", len(events), err)
	}
	return len(events), d.states.Upsert(ctx, next)
}

func (d *Detector) latestAccepted(ctx context.Context, username string, fallback time.Time) time.Time {
	subs, err := d.upstream.RecentAccepted(ctx, username, config.EventTimestampLimit)
	if err != nil || len(subs) == 0 {
		return fallback
	}
	latest := subs[0].Timestamp
	for _, s := range subs[1:] {
		if s.Timestamp.After(latest) {
			latest = s.Timestamp
		}
	}
	return latest.UTC()
}

// Diff lists the events implied by moving from prev to cur.
func Diff(m *models.Member, prev *models.LastState, cur models.Totals, streak Streak) []notifications.Event {
	var events []notifications.Event
	name := m.DisplayName()

	if delta := cur.Total - prev.Total; delta > 0 {
		easy := max(cur.Easy-prev.Easy, 0)
		medium := max(cur.Medium-prev.Medium, 0)
		hard := max(cur.Hard-prev.Hard, 0)
		events = append(events, notifications.Event{
			Kind:      notifications.KindNewSolves,
			Title:     fmt.Sprintf("%s solved %d new problem%s", name, delta, plural(delta)),
			Body:      fmt.Sprintf("%s: +%d (easy %d, medium %d, hard %d), total %d", name, delta, easy, medium, hard, cur.Total),
			Recipient: m.TeamOwner,
			Metadata: map[string]interface{}{
				"member": m.Username,
				"count":  delta,
				"easy":   easy,
				"medium": medium,
				"hard":   hard,
			},
		})
	}

	for _, threshold := range config.Milestones {
		if prev.Total < threshold && cur.Total >= threshold {
			events = append(events, notifications.Event{
				Kind:      notifications.KindMilestone,
				Title:     fmt.Sprintf("%s reached %d solved", name, threshold),
				Body:      fmt.Sprintf("%s crossed %d solved problems (now %d)", name, threshold, cur.Total),
				Recipient: m.TeamOwner,
				Metadata: map[string]interface{}{
					"member":    m.Username,
					"threshold": threshold,
					"total":     cur.Total,
				},
			})
		}
	}

	if prev.Hard == 0 && cur.Hard >= 1 {
		events = append(events, notifications.Event{
			Kind:      notifications.KindFirstHard,
			Title:     fmt.Sprintf("%s solved a first hard problem", name),
			Body:      fmt.Sprintf("%s now has %d hard solve%s", name, cur.Hard, plural(cur.Hard)),
			Recipient: m.TeamOwner,
			Metadata: map[string]interface{}{
				"member": m.Username,
				"hard":   cur.Hard,
			},
		})
	}

	if streak.Status == StatusAtRisk && Status(prev.StreakStatus) != StatusAtRisk && streak.Current > 0 {
		events = append(events, notifications.Event{
			Kind:      notifications.KindStreakAtRisk,
			Title:     fmt.Sprintf("%s's %d week streak is at risk", name, streak.Current),
			Body:      fmt.Sprintf("%s has not been active this week yet", name),
			Recipient: m.TeamOwner,
			Metadata: map[string]interface{}{
				"member":         m.Username,
				"current_streak": streak.Current,
				"longest_streak": streak.Longest,
			},
		})
	}

	return events
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
