package channels

import (
	"context"
	"log/slog"

	"github.com/leetboard/leetboard/internal/gateways/database/models"
)

// Log writes every notification to the process log. It never fails.
type Log struct{}

func NewLog() *Log { return &Log{} }

func (*Log) Name() string { return "log" }

func (*Log) Send(_ context.Context, n *models.Notification) error {
	slog.Info(n.Title,
		slog.String("type", "sys"),
		slog.Int64("notification_id", n.ID),
		slog.String("kind", n.Kind),
		slog.String("recipient", n.Recipient),
		slog.String("message", n.Body))
	return nil
}
