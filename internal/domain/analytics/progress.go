package analytics

import (
	"context"
	"fmt"

	"github.com/leetboard/leetboard/internal/domain/weeks"
	"github.com/leetboard/leetboard/internal/gateways/database/models"
	"github.com/leetboard/leetboard/leetboard/config"
)

type MemberSeries struct {
	Name string `json:"name"`
	Data []int  `json:"data"`
	// LiveFilled marks a last cell that came from a live read, not the ledger.
	LiveFilled bool `json:"live_filled,omitempty"`
}

type WeeklyProgress struct {
	Weeks   []string                `json:"weeks"`
	Metric  models.Metric           `json:"metric"`
	Members map[string]MemberSeries `json:"members"`
}

// WeeklyProgress returns a forward-filled series of metric per active member
// over the n weeks ending at the current week. A cell with no row carries the
// last value observed at or before it, or 0.
func (s *Service) WeeklyProgress(ctx context.Context, team string, n int, metric models.Metric) (*WeeklyProgress, error) {
	if metric == "" {
		metric = models.MetricTotal
	}
	if !metric.Valid() {
		return nil, fmt.Errorf("%w: metric %q", ErrInvalidArgument, metric)
	}
	n = clamp(n, config.DefaultProgressWeeks, 1, config.MaxProgressWeeks)

	current := s.currentWeek()
	window := weeks.Window(current, n)

	members, err := s.members.ListActive(ctx, team)
	if err != nil {
		return nil, err
	}
	book, err := s.loadLedger(ctx, usernames(members), current)
	if err != nil {
		return nil, err
	}

	out := &WeeklyProgress{
		Weeks:   make([]string, n),
		Metric:  metric,
		Members: make(map[string]MemberSeries, len(members)),
	}
	for i, w := range window {
		out.Weeks[i] = weeks.Format(w)
	}

	for _, m := range members {
		series := MemberSeries{Name: m.DisplayName(), Data: make([]int, n)}
		for i, w := range window {
			if row := book.atOrBefore(m.Username, w); row != nil {
				series.Data[i] = row.Totals().Value(metric)
			}
		}

		last := n - 1
		if book.at(m.Username, current) == nil && series.Data[last] == 0 {
			if totals, ok := s.live.Fill(ctx, m.Username); ok {
				series.Data[last] = totals.Value(metric)
				series.LiveFilled = true
			}
		}
		out.Members[m.Username] = series
	}
	return out, nil
}
