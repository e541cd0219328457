package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventrobil-pos/internal/ai"
	"inventrobil-pos/internal/archive"
	"inventrobil-pos/internal/auth"
	"inventrobil-pos/internal/config"
	"inventrobil-pos/internal/database"
	"inventrobil-pos/internal/events"
	"inventrobil-pos/internal/handlers"
	"inventrobil-pos/internal/logger"
	"inventrobil-pos/internal/metrics"
	"inventrobil-pos/internal/middleware"
	"inventrobil-pos/internal/routes"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg, zlog)
	if err != nil {
		return err
	}
	store := database.NewStore(db, zlog)

	if created, err := store.Bootstrap(ctx, cfg.AdminUsername, cfg.AdminPassword, cfg.AdminEmail); err != nil {
		return err
	} else if created {
		zlog.Warn("Created initial owner account, change its password", zap.String("username", cfg.AdminUsername))
	}
	if cfg.SeedSampleCatalog {
		if seeded, err := store.SeedSampleCatalog(ctx); err != nil {
			return err
		} else if seeded {
			zlog.Info("Seeded sample catalog")
		}
	}

	deps := handlers.Deps{
		Users:             store,
		Catalog:           store,
		Ledger:            store,
		Reports:           store,
		Tokens:            auth.NewTokens(cfg.JWTSecret, cfg.SessionTTL),
		Metrics:           metrics.New(),
		Pinger:            store.Ping,
		Log:               zlog,
		StoreName:         cfg.StoreName,
		LowStockThreshold: cfg.LowStockThreshold,
		SecureCookies:     cfg.IsProduction(),
	}

	// --- Optional integrations: each one is skipped when unconfigured ---
	if cfg.RabbitMQ.URL != "" {
		pub, err := events.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, zlog)
		if err != nil {
			zlog.Warn("Sale events disabled", zap.Error(err))
		} else {
			defer pub.Close()
			deps.Publisher = pub
		}
	}

	arch, err := archive.New(ctx, cfg, zlog)
	switch {
	case errors.Is(err, archive.ErrNotConfigured):
	case err != nil:
		zlog.Warn("Catalog archive disabled", zap.Error(err))
	default:
		deps.Archive = arch
	}

	if cfg.Gemini.APIKey != "" {
		assistant, err := ai.New(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, store, cfg.LowStockThreshold, zlog)
		if err != nil {
			zlog.Warn("Assistant disabled", zap.Error(err))
		} else {
			defer assistant.Close()
			deps.Assistant = assistant
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	h := handlers.New(deps)
	gate := middleware.NewSessionGate(deps.Tokens, store)
	r := routes.New(h, gate, routes.Options{CORSOrigins: cfg.CORSOrigins, WebDir: cfg.WebDir})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("Server starting", zap.String("addr", srv.Addr), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zlog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	return nil
}
