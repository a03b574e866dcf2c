// Package streaks derives weekly activity streaks from the snapshot ledger and
// turns changes in observed totals into notification events.
package streaks

import (
	"sort"
	"time"

	"github.com/leetboard/leetboard/internal/domain/weeks"
	"github.com/leetboard/leetboard/internal/gateways/database/models"
	"github.com/leetboard/leetboard/leetboard/config"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusAtRisk   Status = "at_risk"
	StatusBroken   Status = "broken"
	StatusInactive Status = "inactive"
)

type Streak struct {
	Current        int        `json:"current"`
	Longest        int        `json:"longest"`
	LastActiveWeek *time.Time `json:"last_active_week,omitempty"`
	Status         Status     `json:"status"`
}

// ActiveWeeks returns the week starts whose total is above the previous row,
// oldest first. The earliest row counts when it is positive.
func ActiveWeeks(snapshots []*models.Snapshot) []time.Time {
	rows := append([]*models.Snapshot(nil), snapshots...)
	sort.Slice(rows, func(i, j int) bool { return rows[i].WeekStart.Before(rows[j].WeekStart) })

	var active []time.Time
	for i, s := range rows {
		if i == 0 {
			if s.Total > 0 {
				active = append(active, s.WeekStart.UTC())
			}
			continue
		}
		if s.Total > rows[i-1].Total {
			active = append(active, s.WeekStart.UTC())
		}
	}
	return active
}

// Compute evaluates the streak of one member as of currentWeek. The status is
// active only when the last active week is currentWeek itself; a streak whose
// last active week is the previous one stays at_risk with its current length,
// which is what lets streak_at_risk fire.
func Compute(snapshots []*models.Snapshot, currentWeek time.Time) Streak {
	currentWeek = weeks.MondayOf(currentWeek)
	active := ActiveWeeks(snapshots)
	if len(active) == 0 {
		return Streak{Status: StatusInactive}
	}

	var st Streak
	run := 0
	for i, w := range active {
		if i > 0 && weeks.Consecutive(active[i-1], w) {
			run++
		} else {
			run = 1
		}
		if run > st.Longest {
			st.Longest = run
		}
	}

	last := active[len(active)-1]
	st.LastActiveWeek = &last

	previousWeek := weeks.Add(currentWeek, -1)
	if last.Equal(currentWeek) || last.Equal(previousWeek) {
		st.Current = 1
		for i := len(active) - 1; i > 0 && weeks.Consecutive(active[i-1], active[i]); i-- {
			st.Current++
		}
	}

	idle := currentWeek.Sub(last)
	switch {
	case last.Equal(currentWeek):
		st.Status = StatusActive
	case st.Current > 0:
		st.Status = StatusAtRisk
	case idle <= config.AtRiskWindowDays*24*time.Hour:
		st.Status = StatusAtRisk
	default:
		st.Status = StatusBroken
	}
	return st
}
