package analytics

import (
	"context"
	"errors"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/leetboard/leetboard/internal/domain/weeks"
	"github.com/leetboard/leetboard/internal/gateways/database/models"
	"github.com/leetboard/leetboard/internal/gateways/database/repositories"
	"github.com/leetboard/leetboard/internal/gateways/leetcode"
	"github.com/leetboard/leetboard/leetboard/config"
)

// ErrInvalidArgument is returned for an unknown metric or similar bad input.
var ErrInvalidArgument = errors.New("invalid argument")

type Options struct {
	LiveFill  bool
	TrendTTL  time.Duration
	CacheSize int
	Now       func() time.Time
}

// Service derives the read-side views from the snapshot ledger. It is
// request scoped and safe to call concurrently with a snapshot tick.
type Service struct {
	members   repositories.MemberRepository
	snapshots repositories.SnapshotRepository
	upstream  leetcode.API
	live      *LiveFiller

	trendCache *lru.Cache
	trendTTL   time.Duration
	now        func() time.Time
}

type trendEntry struct {
	points    []TrendPoint
	timestamp time.Time
}

func NewService(members repositories.MemberRepository, snapshots repositories.SnapshotRepository, upstream leetcode.API, opts Options) *Service {
	if opts.TrendTTL <= 0 {
		opts.TrendTTL = config.TrendCacheTTL
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	cache, _ := lru.New(opts.CacheSize)

	return &Service{
		members:    members,
		snapshots:  snapshots,
		upstream:   upstream,
		live:       NewLiveFiller(upstream, opts.LiveFill),
		trendCache: cache,
		trendTTL:   opts.TrendTTL,
		now:        opts.Now,
	}
}

// History returns the newest stored rows of the team's active members.
func (s *Service) History(ctx context.Context, team string, limit int) ([]*models.Snapshot, error) {
	members, err := s.members.ListActive(ctx, team)
	if err != nil {
		return nil, err
	}
	return s.snapshots.History(ctx, usernames(members), limit)
}

func usernames(members []*models.Member) []string {
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = m.Username
	}
	return out
}

// ledger is the stored history of a set of members, oldest week first.
type ledger map[string][]*models.Snapshot

func (s *Service) loadLedger(ctx context.Context, names []string, through time.Time) (ledger, error) {
	rows, err := s.snapshots.Range(ctx, names, time.Time{}, through)
	if err != nil {
		return nil, err
	}
	out := make(ledger, len(names))
	for _, r := range rows {
		out[r.Username] = append(out[r.Username], r)
	}
	return out, nil
}

// at returns the row stored exactly at week.
func (l ledger) at(username string, week time.Time) *models.Snapshot {
	for _, r := range l[username] {
		if r.WeekStart.Equal(week) {
			return r
		}
	}
	return nil
}

// atOrBefore returns the most recent row with week_start <= week.
func (l ledger) atOrBefore(username string, week time.Time) *models.Snapshot {
	var found *models.Snapshot
	for _, r := range l[username] {
		if r.WeekStart.After(week) {
			break
		}
		found = r
	}
	return found
}

// before returns the most recent row with week_start < week.
func (l ledger) before(username string, week time.Time) *models.Snapshot {
	var found *models.Snapshot
	for _, r := range l[username] {
		if !r.WeekStart.Before(week) {
			break
		}
		found = r
	}
	return found
}

type ranked struct {
	username string
	value    int
}

// denseRanks numbers values 1..n by value descending, username ascending.
func denseRanks(values []ranked) map[string]int {
	sorted := append([]ranked(nil), values...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].value != sorted[j].value {
			return sorted[i].value > sorted[j].value
		}
		return sorted[i].username < sorted[j].username
	})
	out := make(map[string]int, len(sorted))
	for i, v := range sorted {
		out[v.username] = i + 1
	}
	return out
}

func (s *Service) currentWeek() time.Time {
	return weeks.MondayOf(s.now())
}

func clamp(v, def, lo, hi int) int {
	if v <= 0 {
		return def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
