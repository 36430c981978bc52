package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adforge/backend/internal/config"
	"github.com/adforge/backend/internal/db"
	"github.com/adforge/backend/internal/events"
	apphttp "github.com/adforge/backend/internal/http"
	"github.com/adforge/backend/internal/http/dto"
	"github.com/adforge/backend/internal/http/handlers"
	"github.com/adforge/backend/internal/metrics"
	"github.com/adforge/backend/internal/middleware"
	"github.com/adforge/backend/internal/repositories"
	"github.com/adforge/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, cfg.MigrationsDir, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	m := metrics.New()
	templateService := services.NewTemplateService(
		repositories.NewTemplateRepo(pool),
		repositories.NewTaskRepo(pool),
		repositories.NewAuditRepo(pool),
		events.NewRedisPublisher(rdb, log),
		m,
		cfg.ImportMaxRows,
		log,
	)

	app := fiber.New(fiber.Config{
		AppName:      "adforge-api",
		BodyLimit:    cfg.UploadLimitBytes(),
		ErrorHandler: errorHandler,
	})
	apphttp.SetupRouter(app, cfg, log, rdb, m, handlers.NewTemplateHandler(templateService, log))

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%s", cfg.APIPort)
		log.Info("starting API server", zap.String("addr", addr), zap.Int("import_max_rows", cfg.ImportMaxRows))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal("server error", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Error("shutdown failed", zap.Error(err))
		}
	}
}

// errorHandler renders errors that escape handlers, such as unknown routes
// and oversized uploads.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code, msg = fe.Code, fe.Message
	}
	return c.Status(code).JSON(dto.ErrorResponse{Error: msg, RequestID: middleware.GetRequestID(c)})
}
