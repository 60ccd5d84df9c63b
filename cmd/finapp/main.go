package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/vansh-20/school-finance-app/internal/backend"
	"github.com/vansh-20/school-finance-app/internal/cli"
	apphttp "github.com/vansh-20/school-finance-app/internal/http"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting finapp server")

	cfg := cli.LoadAndValidateConfig(logger)

	be, err := backend.Build(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, be.Store, cfg.CacheTTL)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Subscribe to the change feed so other writers (the mirror worker,
	// a second instance) invalidate this server's cached snapshot.
	if be.Feed != nil {
		go func() {
			if err := be.Feed.Consume(ctx, srv.HandleChange); err != nil && err != context.Canceled {
				logger.Error("Change feed consumption failed", "error", err)
			}
		}()
	}

	_, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	})

	logger.Info("Starting HTTP listener", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
