package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Taistois/mims/internal/adapters/http/middleware"
	"github.com/Taistois/mims/internal/adapters/http/routes"
	"github.com/Taistois/mims/internal/adapters/persistence/models"
	"github.com/Taistois/mims/internal/adapters/realtime"
	"github.com/Taistois/mims/internal/config"
	"github.com/Taistois/mims/internal/core/services"
	"github.com/Taistois/mims/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

func serve() error {
	return withDatabase(func(cfg *config.Config, db *gorm.DB, log *zap.Logger) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := models.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to auto migrate: %w", err)
		}
		log.Info("database migration completed")

		if err := config.NewSeeder(db, cfg.Seed, log).Run(ctx); err != nil {
			log.Warn("failed to seed bootstrap data", zap.Error(err))
		}

		var m *metrics.Metrics
		if cfg.Metrics.Enabled {
			m = metrics.New(cfg.Metrics.Namespace)
		}

		hub := realtime.NewHub(log, m)
		pusher, closePusher, err := newPusher(ctx, cfg.Redis, hub, log)
		if err != nil {
			return err
		}
		defer closePusher()

		app := fiber.New(fiber.Config{
			AppName:      "MIMS API v1",
			ErrorHandler: middleware.ErrorHandler(log),
		})
		middleware.Setup(app, cfg, m)

		container := routes.Setup(app, &routes.Deps{
			DB:       db,
			Config:   cfg,
			Log:      log,
			Metrics:  m,
			Pusher:   pusher,
			Registry: hub,
		})

		if cfg.Cron.Enabled {
			cronService := services.NewCronService(cfg.Cron, container.Loans, container.RefreshTokens, log, m)
			if err := cronService.Start(); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}
			defer cronService.Stop()
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info("server starting", zap.String("port", cfg.Port), zap.String("mode", cfg.AppMode))
			errCh <- app.Listen(":" + cfg.Port)
		}()

		select {
		case err := <-errCh:
			return fmt.Errorf("failed to start server: %w", err)
		case <-ctx.Done():
		}

		log.Info("shutting down server")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Error("error during shutdown", zap.Error(err))
		}
		log.Info("server stopped gracefully")
		return nil
	})
}

// newPusher fans pushes out through redis when configured, otherwise
// delivers them to this instance's hub only.
func newPusher(ctx context.Context, cfg config.RedisConfig, hub *realtime.Hub, log *zap.Logger) (realtime.Pusher, func(), error) {
	if cfg.Addr == "" {
		log.Info("redis not configured, realtime push is local to this instance")
		return hub, func() {}, nil
	}

	rp, err := realtime.NewRedisPusher(ctx, cfg, hub, log)
	if err != nil {
		return nil, nil, err
	}
	if err := rp.Run(ctx); err != nil {
		_ = rp.Close()
		return nil, nil, err
	}

	closeFn := func() {
		if err := rp.Close(); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("failed to close redis pusher", zap.Error(err))
		}
	}
	return rp, closeFn, nil
}
