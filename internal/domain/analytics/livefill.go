package analytics

import (
	"context"
	"log/slog"

	"github.com/leetboard/leetboard/internal/gateways/database/models"
	"github.com/leetboard/leetboard/internal/gateways/leetcode"
)

// LiveFiller replaces an empty current-week cell with a live upstream read.
// It is a presentation concession only: nothing that drives events or stored
// rows goes through it. A nil or disabled filler never fetches.
type LiveFiller struct {
	upstream leetcode.API
	enabled  bool
}

func NewLiveFiller(upstream leetcode.API, enabled bool) *LiveFiller {
	return &LiveFiller{upstream: upstream, enabled: enabled}
}

func (f *LiveFiller) Enabled() bool {
	return f != nil && f.enabled && f.upstream != nil
}

// Fill returns username's live totals. Upstream errors are swallowed and
// reported as ok=false so the caller keeps its forward-filled value.
func (f *LiveFiller) Fill(ctx context.Context, username string) (models.Totals, bool) {
	if !f.Enabled() {
		return models.Totals{}, false
	}
	profile, err := f.upstream.FetchProfile(ctx, username)
	if err != nil {
		slog.Debug("Live fill skipped",
			slog.String("type", "net"),
			slog.String("username", username),
			slog.Any("error", err))
		return models.Totals{}, false
	}
	return profile.Totals, true
}
