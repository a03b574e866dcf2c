package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leetboard/leetboard/internal/gateways/database/models"
	"github.com/leetboard/leetboard/internal/gateways/database/repositories"
	"github.com/leetboard/leetboard/leetboard/config"
)

const (
	KindNewSolves    = "new_solves"
	KindMilestone    = "milestone"
	KindFirstHard    = "first_hard"
	KindStreakAtRisk = "streak_at_risk"
	KindDailyDigest  = "daily_digest"
)

// Event is a notification before it is persisted.
type Event struct {
	Kind      string
	Title     string
	Body      string
	Recipient string
	Metadata  map[string]interface{}
}

// Channel delivers a stored notification somewhere outside the process.
type Channel interface {
	Name() string
	Send(ctx context.Context, n *models.Notification) error
}

// Sink is the append-only notification log with channel fan-out. A channel
// failure marks the row failed but never stops the other channels or the
// write itself.
type Sink struct {
	repo     repositories.NotificationRepository
	channels []Channel
	now      func() time.Time
}

func NewSink(repo repositories.NotificationRepository, channels ...Channel) *Sink {
	return &Sink{repo: repo, channels: channels, now: time.Now}
}

// Emit stores ev as a queued notification, then delivers it.
func (s *Sink) Emit(ctx context.Context, ev Event) (*models.Notification, error) {
	ns, err := s.EmitAll(ctx, []Event{ev})
	if err != nil {
		return nil, err
	}
	return ns[0], nil
}

// EmitAll stores evs together and delivers them in order. When storing fails
// nothing is kept and nothing is delivered.
func (s *Sink) EmitAll(ctx context.Context, evs []Event) ([]*models.Notification, error) {
	if len(evs) == 0 {
		return nil, nil
	}

	createdAt := s.now().UTC()
	ns := make([]*models.Notification, len(evs))
	for i, ev := range evs {
		ns[i] = &models.Notification{
			Kind:      ev.Kind,
			Title:     ev.Title,
			Body:      ev.Body,
			Recipient: ev.Recipient,
			Status:    models.NotificationQueued,
			Metadata:  ev.Metadata,
			CreatedAt: createdAt,
		}
	}
	if err := s.repo.InsertAll(ctx, ns); err != nil {
		return nil, fmt.Errorf("failed to store notifications: %w", err)
	}

	for _, n := range ns {
		s.deliver(ctx, n)
	}
	return ns, nil
}

// List returns a page of notifications, newest first. A zero limit selects
// the default page size and a negative one returns everything.
func (s *Sink) List(ctx context.Context, filter repositories.NotificationFilter) ([]*models.Notification, error) {
	switch {
	case filter.Limit == 0:
		filter.Limit = config.DefaultNotificationPage
	case filter.Limit < 0:
		filter.Limit = 0
	case filter.Limit > config.MaxNotificationPage:
		filter.Limit = config.MaxNotificationPage
	}
	return s.repo.List(ctx, filter)
}

// Resend repeats the fan-out of a stored notification.
func (s *Sink) Resend(ctx context.Context, id int64) (*models.Notification, error) {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.deliver(ctx, n)
	return n, nil
}

func (s *Sink) deliver(ctx context.Context, n *models.Notification) {
	errs := make([]error, len(s.channels))

	var g errgroup.Group
	for i, ch := range s.channels {
		g.Go(func() error {
			errs[i] = ch.Send(ctx, n)
			return nil
		})
	}
	_ = g.Wait()

	status := models.NotificationSent
	for i, err := range errs {
		if err != nil {
			status = models.NotificationFailed
			slog.Warn("Notification channel failed",
				slog.String("type", "sys"),
				slog.String("channel", s.channels[i].Name()),
				slog.Int64("notification_id", n.ID),
				slog.String("kind", n.Kind),
				slog.Any("error", err))
		}
	}

	var sentAt *time.Time
	if status == models.NotificationSent {
		t := s.now().UTC()
		sentAt = &t
	}
	if err := s.repo.UpdateStatus(ctx, n.ID, status, sentAt); err != nil {
		slog.Error("Failed to update notification status",
			slog.String("type", "db"),
			slog.Int64("notification_id", n.ID),
			slog.Any("error", err))
		return
	}
	n.Status = status
	if sentAt != nil {
		n.SentAt = sentAt
	}
}
