// Package main запускает HTTP-сервер сервиса дашбордов пожертвований.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/impact-dashboard/internal/config"
	"github.com/mmeshcher/impact-dashboard/internal/handler"
	"github.com/mmeshcher/impact-dashboard/internal/middleware"
	"github.com/mmeshcher/impact-dashboard/internal/refresh"
	"github.com/mmeshcher/impact-dashboard/internal/repository"
	"github.com/mmeshcher/impact-dashboard/internal/service"
	"github.com/mmeshcher/impact-dashboard/internal/store"
)

const evictionInterval = time.Minute

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	var records service.Repository
	if cfg.DatabaseURI != "" {
		repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
		if err != nil {
			sugar.Fatalw("database initialization error", "error", err.Error())
		}
		defer repo.Close()
		records = repo
		sugar.Infow("using postgres record source")
	} else {
		if cfg.RecordStoreAddress == "" {
			sugar.Warnw("record store address is not set, every fetch will fall back to empty collections")
		}
		records = store.NewClient(cfg.RecordStoreAddress, cfg.FetchTimeout)
		sugar.Infow("using remote record store", "addr", cfg.RecordStoreAddress)
	}

	svc := service.NewService(records, logger)
	registry := refresh.NewRegistry(svc.Fetcher(), svc.Build, cfg.SessionIdleTTL, logger)

	sessionMiddleware := middleware.NewSessionMiddleware(cfg.SessionSecret)
	h := handler.NewHandler(svc, registry, logger, sessionMiddleware)

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: h.SetupRouter(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Удаление простаивающих сессий просмотра
	g.Go(func() error {
		registry.StartEviction(ctx, evictionInterval)
		return nil
	})

	g.Go(func() error {
		sugar.Infow("starting impact dashboard server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
