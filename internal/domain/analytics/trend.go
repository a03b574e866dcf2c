package analytics

import (
	"context"
	"fmt"

	"github.com/leetboard/leetboard/internal/domain/weeks"
	"github.com/leetboard/leetboard/internal/gateways/leetcode"
	"github.com/leetboard/leetboard/leetboard/config"
)

type TrendPoint struct {
	Member string `json:"member"`
	Date   string `json:"date"`
	Count  int    `json:"count"`
}

// AcceptedTrend counts distinct problems accepted per member per day over the
// days ending today. Members whose stream cannot be fetched are left out.
func (s *Service) AcceptedTrend(ctx context.Context, team string, days int) ([]TrendPoint, error) {
	days = clamp(days, config.DefaultTrendDays, 1, config.MaxTrendDays)
	now := s.now()
	key := fmt.Sprintf("%s:%d", team, days)

	if v, ok := s.trendCache.Get(key); ok {
		entry := v.(trendEntry)
		if now.Sub(entry.timestamp) < s.trendTTL && weeks.Day(entry.timestamp).Equal(weeks.Day(now)) {
			return append([]TrendPoint(nil), entry.points...), nil
		}
		s.trendCache.Remove(key)
	}

	members, err := s.members.ListActive(ctx, team)
	if err != nil {
		return nil, err
	}

	window := weeks.Days(now, days)
	streams := s.recentStreams(ctx, members)

	var points []TrendPoint
	for _, m := range members {
		subs, ok := streams[m.Username]
		if !ok {
			continue
		}
		counts := DailyDistinct(subs)
		for _, day := range window {
			date := weeks.Format(day)
			points = append(points, TrendPoint{Member: m.Username, Date: date, Count: counts[date]})
		}
	}

	s.trendCache.Add(key, trendEntry{points: points, timestamp: now})
	return append([]TrendPoint(nil), points...), nil
}

// DailyDistinct counts distinct title slugs per UTC date. A problem solved
// twice on one day counts once.
func DailyDistinct(subs []leetcode.RecentSubmission) map[string]int {
	seen := make(map[string]map[string]struct{})
	for _, sub := range subs {
		date := weeks.Format(sub.Timestamp)
		if seen[date] == nil {
			seen[date] = make(map[string]struct{})
		}
		seen[date][sub.TitleSlug] = struct{}{}
	}
	out := make(map[string]int, len(seen))
	for date, slugs := range seen {
		out[date] = len(slugs)
	}
	return out
}
