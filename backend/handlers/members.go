package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/leetboard/leetboard/backend/models"
	"github.com/leetboard/leetboard/backend/utils"
	dbmodels "github.com/leetboard/leetboard/internal/gateways/database/models"
)

func MembersList(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		members, err := webApp.Roster.List(c.UserContext(), webApp.team(c))
		if err != nil {
			return sendDomainError(c, err)
		}
		if members == nil {
			members = []*dbmodels.Member{}
		}
		return utils.SendSuccess(c, members, "")
	}
}

func MembersSearch(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		members, err := webApp.Roster.Search(c.UserContext(), webApp.team(c), c.Query("q"))
		if err != nil {
			return sendDomainError(c, err)
		}
		if members == nil {
			members = []*dbmodels.Member{}
		}
		return utils.SendSuccess(c, members, "")
	}
}

// MembersAdd validates the username upstream, stores the member and captures
// a baseline snapshot.
func MembersAdd(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.AddMemberRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid request body", nil)
		}
		if req.Username == "" {
			return utils.HandleValidationErrors(c, []models.ValidationError{
				{Field: "username", Message: "username is required"},
			})
		}

		member, err := webApp.Roster.Add(c.UserContext(), webApp.team(c), req.Username)
		if err != nil {
			return sendDomainError(c, err)
		}
		return utils.SendCreated(c, member, "Member added")
	}
}

func MembersRemove(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := webApp.Roster.Remove(c.UserContext(), webApp.team(c), c.Params("username")); err != nil {
			return sendDomainError(c, err)
		}
		return utils.SendNoContent(c)
	}
}

func MembersSetStatus(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.StatusRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid request body", nil)
		}

		status := dbmodels.MemberStatus(req.Status)
		if err := webApp.Roster.SetStatus(c.UserContext(), webApp.team(c), c.Params("username"), status); err != nil {
			return sendDomainError(c, err)
		}
		return utils.SendSuccess(c, fiber.Map{"username": c.Params("username"), "status": status}, "Status updated")
	}
}
