package utils

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/leetboard/leetboard/backend/models"
)

// SendJSON sends a JSON response using Fiber
func SendJSON(c *fiber.Ctx, statusCode int, data interface{}) error {
	return c.Status(statusCode).JSON(data)
}

// SendSuccess sends a successful JSON response
func SendSuccess(c *fiber.Ctx, data interface{}, message string) error {
	return SendJSON(c, http.StatusOK, models.NewSuccessResponse(data, message))
}

// SendCreated sends a created resource JSON response
func SendCreated(c *fiber.Ctx, data interface{}, message string) error {
	return SendJSON(c, http.StatusCreated, models.NewSuccessResponse(data, message))
}

// SendError sends an error JSON response
func SendError(c *fiber.Ctx, statusCode int, code, message string, details map[string]string) error {
	return SendJSON(c, statusCode, models.NewErrorResponse(code, message, details))
}

func SendBadRequest(c *fiber.Ctx, message string, details map[string]string) error {
	return SendError(c, http.StatusBadRequest, "BAD_REQUEST", message, details)
}

func SendNotFound(c *fiber.Ctx, message string) error {
	return SendError(c, http.StatusNotFound, "NOT_FOUND", message, nil)
}

func SendConflict(c *fiber.Ctx, message string) error {
	return SendError(c, http.StatusConflict, "CONFLICT", message, nil)
}

func SendUnprocessableEntity(c *fiber.Ctx, message string) error {
	return SendError(c, http.StatusUnprocessableEntity, "UPSTREAM_REJECTED", message, nil)
}

func SendInternalServerError(c *fiber.Ctx, message string) error {
	return SendError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", message, nil)
}

// SendPaginated sends a paginated JSON response
func SendPaginated(c *fiber.Ctx, data interface{}, page *models.PageInfo, message string) error {
	return SendJSON(c, http.StatusOK, models.NewPaginatedResponse(data, page, message))
}

func SendNoContent(c *fiber.Ctx) error {
	return c.SendStatus(http.StatusNoContent)
}

// HandleValidationErrors converts validation errors to a 400 response
func HandleValidationErrors(c *fiber.Ctx, errs []models.ValidationError) error {
	details := make(map[string]string, len(errs))
	for _, err := range errs {
		details[err.Field] = err.Message
	}
	return SendBadRequest(c, "Validation failed", details)
}

// GetIPAddress extracts the client IP address
func GetIPAddress(c *fiber.Ctx) string {
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := c.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return c.IP()
}

// GetUserAgent extracts the user agent
func GetUserAgent(c *fiber.Ctx) string {
	return c.Get("User-Agent")
}
