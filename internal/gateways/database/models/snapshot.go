package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Totals is one observation of a member's cumulative solve counts. Total is
// tracked independently of the per-difficulty counts.
type Totals struct {
	Total  int `json:"total"`
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}

// Metric selects one component of Totals.
type Metric string

const (
	MetricTotal  Metric = "total"
	MetricEasy   Metric = "easy"
	MetricMedium Metric = "medium"
	MetricHard   Metric = "hard"
)

func (m Metric) Valid() bool {
	switch m {
	case MetricTotal, MetricEasy, MetricMedium, MetricHard:
		return true
	}
	return false
}

func (t Totals) Value(m Metric) int {
	switch m {
	case MetricEasy:
		return t.Easy
	case MetricMedium:
		return t.Medium
	case MetricHard:
		return t.Hard
	default:
		return t.Total
	}
}

// Snapshot is the weekly ledger row for one member.
type Snapshot struct {
	bun.BaseModel `bun:"table:snapshots,alias:s"`

	ID         int64     `bun:"id,pk,autoincrement" json:"id"`
	Username   string    `bun:"username,notnull,unique:snapshots_username_week" json:"member"`
	WeekStart  time.Time `bun:"week_start,notnull,unique:snapshots_username_week" json:"week_start"`
	Total      int       `bun:"total_solved,notnull,default:0" json:"totalSolved"`
	Easy       int       `bun:"easy,notnull,default:0" json:"easy"`
	Medium     int       `bun:"medium,notnull,default:0" json:"medium"`
	Hard       int       `bun:"hard,notnull,default:0" json:"hard"`
	Rank       *int      `bun:"rank" json:"rank,omitempty"`
	CapturedAt time.Time `bun:"timestamp,notnull" json:"captured_at"`
}

func (s *Snapshot) Totals() Totals {
	return Totals{Total: s.Total, Easy: s.Easy, Medium: s.Medium, Hard: s.Hard}
}

func (s *Snapshot) SetTotals(t Totals) {
	s.Total = t.Total
	s.Easy = t.Easy
	s.Medium = t.Medium
	s.Hard = t.Hard
}
