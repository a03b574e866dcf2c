// Package backend serves the read and admin REST surface over fiber.
package backend

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/leetboard/leetboard/backend/handlers"
	"github.com/leetboard/leetboard/backend/middleware"
)

// New builds the fiber app with every route registered.
func New(webApp *handlers.WebApp) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Leetboard API",
		ServerHeader:          "Leetboard",
		ErrorHandler:          middleware.CustomErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(middleware.SecurityHeaders())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,PATCH,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))
	app.Use(middleware.LoggingMiddleware())

	setupRoutes(app, webApp)
	return app
}

func setupRoutes(app *fiber.App, webApp *handlers.WebApp) {
	app.Get("/health", handlers.HealthCheck(webApp))

	api := app.Group("/api")
	api.Get("/history", handlers.History(webApp))
	api.Post("/snapshot", middleware.TriggerRateLimit(), handlers.TriggerSnapshot(webApp))
	api.Get("/weekly-progress", handlers.WeeklyProgress(webApp))
	api.Get("/week-over-week", handlers.WeekOverWeek(webApp))
	api.Get("/accepted-trend", handlers.AcceptedTrend(webApp))

	daily := api.Group("/daily")
	daily.Get("/", handlers.DailyChallenge(webApp))
	daily.Get("/completions", handlers.DailyCompletions(webApp))
	daily.Get("/history", handlers.DailyHistory(webApp))

	members := api.Group("/members")
	members.Get("/", handlers.MembersList(webApp))
	members.Get("/search", handlers.MembersSearch(webApp))
	members.Post("/", middleware.TriggerRateLimit(), handlers.MembersAdd(webApp))
	members.Delete("/:username", handlers.MembersRemove(webApp))
	members.Patch("/:username/status", handlers.MembersSetStatus(webApp))

	notifications := api.Group("/notifications")
	notifications.Get("/", handlers.NotificationsList(webApp))
	notifications.Post("/:id/resend", handlers.NotificationsResend(webApp))

	app.Use(func(c *fiber.Ctx) error {
		slog.Warn("No route matched for request",
			slog.String("type", "cmd"),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()))
		return fiber.NewError(fiber.StatusNotFound, "The requested endpoint does not exist")
	})
}
