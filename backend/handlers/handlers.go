package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/leetboard/leetboard/backend/models"
	"github.com/leetboard/leetboard/backend/utils"
	"github.com/leetboard/leetboard/internal/domain/analytics"
	"github.com/leetboard/leetboard/internal/domain/notifications"
	"github.com/leetboard/leetboard/internal/domain/roster"
	"github.com/leetboard/leetboard/internal/domain/snapshots"
	"github.com/leetboard/leetboard/internal/gateways/database/repositories"
	"github.com/leetboard/leetboard/internal/gateways/leetcode"
)

// SnapshotTrigger forces one snapshot tick.
type SnapshotTrigger interface {
	RunSnapshotNow(ctx context.Context) (*snapshots.TickResult, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type poolStater interface {
	PoolStats() map[string]int64
}

// WebApp represents the web application with all dependencies
type WebApp struct {
	Roster      *roster.Service
	Analytics   *analytics.Service
	Sink        *notifications.Sink
	Trigger     SnapshotTrigger
	DB          Pinger
	DefaultTeam string
	Version     string
	Commit      string
}

func (w *WebApp) team(c *fiber.Ctx) string {
	if team := c.Query("team"); team != "" {
		return team
	}
	return w.DefaultTeam
}

// sendDomainError maps a service error to the response envelope.
func sendDomainError(c *fiber.Ctx, err error) error {
	switch {
	case repositories.IsNotFound(err):
		return utils.SendNotFound(c, err.Error())
	case repositories.IsConflict(err):
		return utils.SendConflict(c, err.Error())
	case errors.Is(err, leetcode.ErrRejected):
		return utils.SendUnprocessableEntity(c, err.Error())
	case errors.Is(err, analytics.ErrInvalidArgument),
		errors.Is(err, roster.ErrInvalidUsername),
		errors.Is(err, roster.ErrInvalidTeam),
		errors.Is(err, roster.ErrInvalidStatus):
		return utils.SendBadRequest(c, err.Error(), nil)
	}

	slog.Error("Request failed",
		slog.String("type", "error"),
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.Any("error", err))
	return utils.SendInternalServerError(c, "internal error")
}

// HealthCheck reports database reachability.
func HealthCheck(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := models.NewHealthCheck(webApp.Version, webApp.Commit)
		if err := webApp.DB.Ping(c.UserContext()); err != nil {
			health.AddComponent("database", "unhealthy", err.Error())
			return utils.SendJSON(c, fiber.StatusServiceUnavailable, health)
		}
		health.AddComponent("database", "healthy", "")
		if ps, ok := webApp.DB.(poolStater); ok {
			if st := ps.PoolStats(); st != nil {
				health.AddComponent("pool", "healthy",
					fmt.Sprintf("%d/%d connections in use", st["acquired_conns"], st["max_conns"]))
			}
		}
		return utils.SendJSON(c, fiber.StatusOK, health)
	}
}
