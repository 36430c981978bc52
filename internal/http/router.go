package http

import (
	"time"

	"github.com/adforge/backend/internal/config"
	"github.com/adforge/backend/internal/http/handlers"
	"github.com/adforge/backend/internal/metrics"
	"github.com/adforge/backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	m *metrics.Metrics,
	templateHandler *handlers.TemplateHandler,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if m != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})))
	}

	api := app.Group("/api/v1")

	// Meta (public)
	metaHandler := handlers.NewMetaHandler()
	api.Get("/meta/categories", metaHandler.GetCategories)
	api.Get("/meta/ctas", metaHandler.GetCTAs)

	protected := api.Group("",
		middleware.AuthMiddleware(cfg.JWTSecret, log),
		middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute),
	)

	// Templates
	protected.Post("/templates/import", templateHandler.ImportTemplates)
	protected.Post("/templates/from-task", templateHandler.CreateFromTask)
	protected.Get("/templates", templateHandler.ListTemplates)
	protected.Get("/templates/:id", templateHandler.GetTemplate)
	protected.Put("/templates/:id", templateHandler.UpdateTemplate)
	protected.Delete("/templates/:id", templateHandler.DeleteTemplate)
	protected.Put("/templates/:id/visibility", templateHandler.SetVisibility)
	protected.Post("/templates/:id/launch", templateHandler.LaunchTemplate)
	protected.Get("/templates/:id/history", templateHandler.GetHistory)
}
