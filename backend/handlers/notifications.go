package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/leetboard/leetboard/backend/models"
	"github.com/leetboard/leetboard/backend/utils"
	dbmodels "github.com/leetboard/leetboard/internal/gateways/database/models"
	"github.com/leetboard/leetboard/internal/gateways/database/repositories"
)

// NotificationsList pages through the notification log, newest first.
func NotificationsList(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := utils.NewQuery(c)
		filter := repositories.NotificationFilter{
			Kind:      q.String("type", ""),
			Status:    dbmodels.NotificationStatus(q.String("status", "")),
			Recipient: q.String("recipient", ""),
			Limit:     q.Int("limit", 0),
			Offset:    q.Int("offset", 0),
		}
		if !q.Valid() {
			return utils.HandleValidationErrors(c, q.Errs)
		}

		list, err := webApp.Sink.List(c.UserContext(), filter)
		if err != nil {
			return sendDomainError(c, err)
		}
		if list == nil {
			list = []*dbmodels.Notification{}
		}
		return utils.SendPaginated(c, list, &models.PageInfo{
			Limit:  filter.Limit,
			Offset: filter.Offset,
			Count:  len(list),
		}, "")
	}
}

func NotificationsResend(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return utils.HandleValidationErrors(c, []models.ValidationError{
				{Field: "id", Message: "id must be an integer"},
			})
		}

		n, err := webApp.Sink.Resend(c.UserContext(), id)
		if err != nil {
			return sendDomainError(c, err)
		}
		return utils.SendSuccess(c, n, "Notification resent")
	}
}
