package analytics

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leetboard/leetboard/internal/domain/weeks"
	"github.com/leetboard/leetboard/internal/gateways/database/models"
	"github.com/leetboard/leetboard/internal/gateways/leetcode"
	"github.com/leetboard/leetboard/leetboard/config"
)

// DailyCompletions is the team's progress on one day's challenge. Members
// whose stream could not be read are in neither list.
type DailyCompletions struct {
	Date      string                   `json:"date"`
	Challenge *leetcode.DailyChallenge `json:"challenge"`
	Completed []string                 `json:"completed"`
	Pending   []string                 `json:"pending"`
}

func (s *Service) DailyChallenge(ctx context.Context) (*leetcode.DailyChallenge, error) {
	return s.upstream.DailyChallenge(ctx)
}

// DailyCompletions reports which active members accepted the challenge of
// date on that same UTC day. A zero date means today.
func (s *Service) DailyCompletions(ctx context.Context, team string, date time.Time) (*DailyCompletions, error) {
	members, err := s.members.ListActive(ctx, team)
	if err != nil {
		return nil, err
	}
	streams := s.recentStreams(ctx, members)
	return s.completionsOn(ctx, members, streams, date)
}

// DailyHistory returns completions for the days ending today, newest first.
func (s *Service) DailyHistory(ctx context.Context, team string, days int) ([]*DailyCompletions, error) {
	days = clamp(days, config.DefaultDailyHistory, 1, config.MaxTrendDays)
	members, err := s.members.ListActive(ctx, team)
	if err != nil {
		return nil, err
	}
	streams := s.recentStreams(ctx, members)

	window := weeks.Days(s.now(), days)
	out := make([]*DailyCompletions, 0, days)
	for i := len(window) - 1; i >= 0; i-- {
		day, err := s.completionsOn(ctx, members, streams, window[i])
		if err != nil {
			return nil, err
		}
		out = append(out, day)
	}
	return out, nil
}

func (s *Service) completionsOn(ctx context.Context, members []*models.Member, streams map[string][]leetcode.RecentSubmission, date time.Time) (*DailyCompletions, error) {
	today := weeks.Day(s.now())
	if date.IsZero() {
		date = today
	}
	date = weeks.Day(date)

	var challenge *leetcode.DailyChallenge
	var err error
	if date.Equal(today) {
		challenge, err = s.upstream.DailyChallenge(ctx)
	} else {
		challenge, err = s.upstream.DailyChallengeOn(ctx, date)
	}
	if err != nil {
		return nil, err
	}

	out := &DailyCompletions{
		Date:      weeks.Format(date),
		Challenge: challenge,
		Completed: []string{},
		Pending:   []string{},
	}
	for _, m := range members {
		subs, ok := streams[m.Username]
		if !ok {
			continue
		}
		if solvedOn(subs, challenge.Question.TitleSlug, date) {
			out.Completed = append(out.Completed, m.Username)
		} else {
			out.Pending = append(out.Pending, m.Username)
		}
	}
	return out, nil
}

func solvedOn(subs []leetcode.RecentSubmission, slug string, day time.Time) bool {
	for _, sub := range subs {
		if sub.TitleSlug == slug && weeks.Day(sub.Timestamp).Equal(day) {
			return true
		}
	}
	return false
}

// recentStreams reads every member's recent-accepted stream concurrently.
// Failed members are absent from the result.
func (s *Service) recentStreams(ctx context.Context, members []*models.Member) map[string][]leetcode.RecentSubmission {
	streams := make([][]leetcode.RecentSubmission, len(members))
	ok := make([]bool, len(members))

	g, gctx := errgroup.WithContext(ctx)
	for i, m := range members {
		g.Go(func() error {
			subs, err := s.upstream.RecentAccepted(gctx, m.Username, config.RecentAcceptedLimit)
			if err != nil {
				slog.Warn("Recent submissions unavailable",
					slog.String("type", "net"),
					slog.String("username", m.Username),
					slog.Any("error", err))
				return nil
			}
			streams[i], ok[i] = subs, true
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string][]leetcode.RecentSubmission, len(members))
	for i, m := range members {
		if ok[i] {
			out[m.Username] = streams[i]
		}
	}
	return out
}
