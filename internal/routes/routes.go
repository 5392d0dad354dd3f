package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/labmoura/laudos/internal/config"
	"github.com/labmoura/laudos/internal/handlers"
	"github.com/labmoura/laudos/internal/metrics"
	"github.com/labmoura/laudos/internal/middleware"
)

type Handlers struct {
	Auth   *handlers.AuthHandler
	Health *handlers.HealthHandler
	Report *handlers.ReportHandler
	Client *handlers.ClientHandler
	Upload *handlers.UploadHandler
	File   *handlers.FileHandler
}

func Setup(app *fiber.App, cfg *config.Config, h Handlers, m *metrics.Metrics) {
	app.Get("/metrics", m.Handler())

	api := app.Group("/api")

	// General API rate limiter per IP
	api.Use(limiter.New(limiter.Config{
		Max:               cfg.RateLimitPerMinute,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)

	// Auth (stricter limit)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               cfg.AuthRateLimitPerMinute,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/client/login", h.Auth.ClientLogin)
	auth.Post("/admin/login", h.Auth.AdminLogin)

	// Public validation and downloads
	api.Get("/reports/:id", h.Report.GetPublic)
	api.Get("/files/*", h.File.Download)

	// Client or admin
	api.Get("/clients/reports", middleware.JWTProtected(cfg), h.Report.ListForClient)

	// Admin only, middleware attached per route so public routes stay open
	admin := []fiber.Handler{middleware.JWTProtected(cfg), middleware.AdminRequired(cfg)}
	api.Get("/reports", append(admin, h.Report.List)...)
	api.Post("/reports", append(admin, h.Report.Create)...)
	api.Post("/reports/upload-pdf", append(admin, h.Upload.Upload)...)
	api.Delete("/reports/uploads/:id", append(admin, h.Upload.Delete)...)
	api.Patch("/reports/:id/status", append(admin, h.Report.UpdateStatus)...)
	api.Get("/clients", append(admin, h.Client.List)...)
	api.Post("/clients", append(admin, h.Client.Create)...)
}
