package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/leetboard/leetboard/backend/utils"
)

// LoggingMiddleware logs HTTP requests in a structured format
func LoggingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()
		if err != nil {
			// let the error handler set the final status before it is logged
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		statusCode := c.Response().StatusCode()
		logLevel := slog.LevelInfo
		if statusCode >= 400 && statusCode < 500 {
			logLevel = slog.LevelWarn
		} else if statusCode >= 500 {
			logLevel = slog.LevelError
		}

		attrs := []slog.Attr{
			slog.String("type", "cmd"),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("query", string(c.Request().URI().QueryString())),
			slog.Int("status", statusCode),
			slog.Duration("took", time.Since(start)),
			slog.String("ip", utils.GetIPAddress(c)),
			slog.String("user_agent", utils.GetUserAgent(c)),
			slog.Int("size", len(c.Response().Body())),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}

		message := "HTTP request processed"
		if err != nil {
			message = "HTTP request failed"
		}
		slog.LogAttrs(c.UserContext(), logLevel, message, attrs...)

		return nil
	}
}
