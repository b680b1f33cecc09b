package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"studiostats/internal/cache"
	"studiostats/internal/config"
	"studiostats/internal/dataset"
	apphttp "studiostats/internal/http"
	applog "studiostats/internal/log"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration",
			applog.FieldError, err.Error(),
			applog.FieldOperation, applog.OpValidate)
		os.Exit(1)
	}

	level := applog.ParseLevel(cfg.LogLevel)
	logger := applog.New(applog.Config{
		Level:     level,
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)

	store := dataset.NewStore(cfg.DatasetTTL, cfg.MaxDatasets)

	srv := apphttp.NewServer(":"+cfg.Port, store, apphttp.Options{
		MaxUploadBytes:   cfg.MaxUploadBytes,
		CacheTTL:         cfg.CacheTTL,
		CacheSize:        cfg.CacheSize,
		RateLimitPerMin:  cfg.RateLimitPerMin,
		RateLimitCleanup: cfg.RateLimitCleanup,
		Logger: applog.New(applog.Config{
			Level:     level,
			Component: applog.ComponentHTTP,
		}),
	})

	// One cleanup loop drives both the session store and the response cache.
	manager := cache.NewManager()
	manager.Register(store)
	manager.Register(srv.ReportCache())
	manager.StartCleanup(10 * time.Minute)

	// Configure server timeouts and limits
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received",
			applog.FieldOperation, applog.OpShutdown,
			"signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		manager.Stop()
		cancel()
	}()

	logger.Info("Starting studiostats server",
		applog.FieldOperation, applog.OpStartup,
		"port", cfg.Port,
		"dataset_ttl", cfg.DatasetTTL.String(),
		"max_datasets", cfg.MaxDatasets)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
