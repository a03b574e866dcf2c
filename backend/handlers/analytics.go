package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/leetboard/leetboard/backend/models"
	"github.com/leetboard/leetboard/backend/utils"
	"github.com/leetboard/leetboard/internal/domain/weeks"
	dbmodels "github.com/leetboard/leetboard/internal/gateways/database/models"
)

// History lists the stored weekly snapshots of the team, newest first.
func History(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := utils.NewQuery(c)
		limit := q.Int("limit", 0)
		if !q.Valid() {
			return utils.HandleValidationErrors(c, q.Errs)
		}

		rows, err := webApp.Analytics.History(c.UserContext(), webApp.team(c), limit)
		if err != nil {
			return sendDomainError(c, err)
		}
		if rows == nil {
			rows = []*dbmodels.Snapshot{}
		}
		return utils.SendSuccess(c, rows, "")
	}
}

// TriggerSnapshot runs one snapshot tick and reports how many members were
// captured.
func TriggerSnapshot(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := webApp.Trigger.RunSnapshotNow(c.UserContext())
		if res == nil {
			return sendDomainError(c, err)
		}

		result := models.SnapshotResult{
			Message:   "Snapshot taken",
			Count:     res.Count,
			WeekStart: weeks.Format(res.WeekStart),
			TickID:    res.TickID,
			Failed:    res.Failed,
		}
		if err != nil {
			// rows already written stay; report the partial run
			result.Message = "Snapshot taken with errors"
		}
		return utils.SendSuccess(c, result, result.Message)
	}
}

func WeeklyProgress(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := utils.NewQuery(c)
		span := q.Int("weeks", 0)
		metric := dbmodels.Metric(q.String("metric", string(dbmodels.MetricTotal)))
		if !q.Valid() {
			return utils.HandleValidationErrors(c, q.Errs)
		}

		progress, err := webApp.Analytics.WeeklyProgress(c.UserContext(), webApp.team(c), span, metric)
		if err != nil {
			return sendDomainError(c, err)
		}
		return utils.SendSuccess(c, progress, "")
	}
}

func WeekOverWeek(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := utils.NewQuery(c)
		span := q.Int("weeks", 0)
		if !q.Valid() {
			return utils.HandleValidationErrors(c, q.Errs)
		}

		records, err := webApp.Analytics.WeekOverWeek(c.UserContext(), webApp.team(c), span)
		if err != nil {
			return sendDomainError(c, err)
		}
		return utils.SendSuccess(c, records, "")
	}
}

func AcceptedTrend(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := utils.NewQuery(c)
		days := q.Int("days", 0)
		if !q.Valid() {
			return utils.HandleValidationErrors(c, q.Errs)
		}

		points, err := webApp.Analytics.AcceptedTrend(c.UserContext(), webApp.team(c), days)
		if err != nil {
			return sendDomainError(c, err)
		}
		return utils.SendSuccess(c, points, "")
	}
}

func DailyChallenge(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		daily, err := webApp.Analytics.DailyChallenge(c.UserContext())
		if err != nil {
			return sendDomainError(c, err)
		}
		return utils.SendSuccess(c, daily, "")
	}
}

func DailyCompletions(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := utils.NewQuery(c)
		date := q.Date("date")
		if !q.Valid() {
			return utils.HandleValidationErrors(c, q.Errs)
		}

		completions, err := webApp.Analytics.DailyCompletions(c.UserContext(), webApp.team(c), date)
		if err != nil {
			return sendDomainError(c, err)
		}
		return utils.SendSuccess(c, completions, "")
	}
}

func DailyHistory(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := utils.NewQuery(c)
		days := q.Int("days", 0)
		if !q.Valid() {
			return utils.HandleValidationErrors(c, q.Errs)
		}

		history, err := webApp.Analytics.DailyHistory(c.UserContext(), webApp.team(c), days)
		if err != nil {
			return sendDomainError(c, err)
		}
		return utils.SendSuccess(c, history, "")
	}
}
