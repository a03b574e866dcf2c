package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/leetboard/leetboard/backend/utils"
)

// CustomErrorHandler renders errors that escaped the handlers, including
// unknown routes, in the JSON envelope.
func CustomErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return utils.SendError(c, code, errorCode(code), message, nil)
}

func errorCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusTooManyRequests:
		return "RATE_LIMIT_EXCEEDED"
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}

// SecurityHeaders adds security headers to responses
func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		return c.Next()
	}
}
