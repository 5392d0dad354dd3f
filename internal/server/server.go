// Package server assembles the report API as a Fiber app.
package server

import (
	"log/slog"

	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/labmoura/laudos/internal/config"
	"github.com/labmoura/laudos/internal/handlers"
	"github.com/labmoura/laudos/internal/metrics"
	"github.com/labmoura/laudos/internal/middleware"
	"github.com/labmoura/laudos/internal/repository"
	"github.com/labmoura/laudos/internal/routes"
	"github.com/labmoura/laudos/internal/services"
	"github.com/labmoura/laudos/internal/storage"
)

// multipartOverhead leaves room for form fields next to the largest PDF.
const multipartOverhead = 1 << 20

type Deps struct {
	Repo    repository.Repository
	Files   storage.FileStore
	Metrics *metrics.Metrics

	// RequestLog enables the per-request access log line.
	RequestLog bool
}

func New(cfg *config.Config, deps Deps) *fiber.App {
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}
	svc := services.New(cfg, deps.Repo, deps.Files, m)

	// Immutable: header, param and form values are kept past the request.
	app := fiber.New(fiber.Config{
		BodyLimit:             cfg.MaxUploadBytes + multipartOverhead,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
		Immutable:             true,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))
	app.Use(recover.New())
	app.Use(requestid.New())
	if deps.RequestLog {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
		}))
	}
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})
	app.Use(m.Middleware())

	routes.Setup(app, cfg, routes.Handlers{
		Auth:   handlers.NewAuthHandler(svc.Auth),
		Health: handlers.NewHealthHandler(deps.Repo.Ping),
		Report: handlers.NewReportHandler(svc.Reports),
		Client: handlers.NewClientHandler(svc.Clients),
		Upload: handlers.NewUploadHandler(svc.Attachments),
		File:   handlers.NewFileHandler(svc.Attachments),
	}, m)

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error",
			"method", c.Method(),
			"path", c.Path(),
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			"actor_id", middleware.ActorID(c),
			"error", err.Error(),
		)
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
