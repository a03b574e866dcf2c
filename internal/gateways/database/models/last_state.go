package models

import (
	"time"

	"github.com/uptrace/bun"
)

// LastState is the diff baseline for event detection. It is refreshed on every
// fetch tick, unlike Snapshot which only moves weekly.
type LastState struct {
	bun.BaseModel `bun:"table:last_state,alias:ls"`

	Owner         string    `bun:"owner,pk"`
	Member        string    `bun:"member,pk"`
	Total         int       `bun:"total_solved,notnull,default:0"`
	Easy          int       `bun:"easy,notnull,default:0"`
	Medium        int       `bun:"medium,notnull,default:0"`
	Hard          int       `bun:"hard,notnull,default:0"`
	StreakStatus  string    `bun:"streak_status,notnull,default:''"`
	CurrentStreak int       `bun:"current_streak,notnull,default:0"`
	ObservedAt    time.Time `bun:"observed_at,notnull"`
}

func (s *LastState) Totals() Totals {
	return Totals{Total: s.Total, Easy: s.Easy, Medium: s.Medium, Hard: s.Hard}
}
