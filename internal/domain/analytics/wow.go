package analytics

import (
	"context"
	"math"
	"sort"

	"github.com/leetboard/leetboard/internal/domain/weeks"
	"github.com/leetboard/leetboard/leetboard/config"
)

// WeekOverWeek is one member's movement between a week and the most recent
// observed week before it.
type WeekOverWeek struct {
	Week         string  `json:"week"`
	Member       string  `json:"member"`
	Name         string  `json:"name"`
	Previous     int     `json:"previous"`
	Current      int     `json:"current"`
	Delta        int     `json:"delta"`
	PctChange    float64 `json:"pct_change"`
	Rank         int     `json:"rank"`
	PreviousRank *int    `json:"previous_rank,omitempty"`
	RankDelta    int     `json:"rank_delta"`
	LiveFilled   bool    `json:"live_filled,omitempty"`
}

// PctChange is 100*delta/previous, 100 when growing from zero and 0 otherwise.
func PctChange(previous, current int) float64 {
	delta := current - previous
	switch {
	case previous > 0:
		return math.Round(10000*float64(delta)/float64(previous)) / 100
	case current > 0:
		return 100
	default:
		return 0
	}
}

// WeekOverWeek returns records for the k most recent weeks, newest week
// first and best rank first within a week. Suspended members are excluded.
//
// previous is the latest row strictly before the week. current is the row at
// the week, carried forward from the latest earlier row when absent; in the
// current week a missing or zero row may be live-filled. Ranks are computed
// within the team on these values.
func (s *Service) WeekOverWeek(ctx context.Context, team string, k int) ([]WeekOverWeek, error) {
	k = clamp(k, config.DefaultWoWWeeks, 1, config.MaxProgressWeeks)
	current := s.currentWeek()

	members, err := s.members.ListActive(ctx, team)
	if err != nil {
		return nil, err
	}
	book, err := s.loadLedger(ctx, usernames(members), current)
	if err != nil {
		return nil, err
	}

	var out []WeekOverWeek
	for i := 0; i < k; i++ {
		week := weeks.Add(current, -i)

		records := make([]WeekOverWeek, 0, len(members))
		var curValues, prevValues []ranked
		for _, m := range members {
			rec := WeekOverWeek{Week: weeks.Format(week), Member: m.Username, Name: m.DisplayName()}

			prevRow := book.before(m.Username, week)
			if prevRow != nil {
				rec.Previous = prevRow.Total
				prevValues = append(prevValues, ranked{m.Username, rec.Previous})
			}
			if row := book.atOrBefore(m.Username, week); row != nil {
				rec.Current = row.Total
			}

			if week.Equal(current) {
				row := book.at(m.Username, week)
				if row == nil || row.Total == 0 {
					if totals, ok := s.live.Fill(ctx, m.Username); ok {
						rec.Current = totals.Total
						rec.LiveFilled = true
					}
				}
			}

			rec.Delta = rec.Current - rec.Previous
			rec.PctChange = PctChange(rec.Previous, rec.Current)
			curValues = append(curValues, ranked{m.Username, rec.Current})
			records = append(records, rec)
		}

		curRanks := denseRanks(curValues)
		prevRanks := denseRanks(prevValues)
		for j := range records {
			rec := &records[j]
			rec.Rank = curRanks[rec.Member]
			if pr, ok := prevRanks[rec.Member]; ok {
				rec.PreviousRank = &pr
				rec.RankDelta = pr - rec.Rank
			}
		}
		sort.Slice(records, func(a, b int) bool { return records[a].Rank < records[b].Rank })
		out = append(out, records...)
	}
	return out, nil
}
