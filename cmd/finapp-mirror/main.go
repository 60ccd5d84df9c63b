package main

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vansh-20/school-finance-app/internal/cli"
	"github.com/vansh-20/school-finance-app/internal/feed"
	"github.com/vansh-20/school-finance-app/internal/mirror"
	gsheet "github.com/vansh-20/school-finance-app/internal/mirror/google"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting finapp-mirror")

	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("Mirror worker requires GOOGLE_SPREADSHEET_ID")
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("Mirror worker requires AMQP_URL")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	sheetsClient, err := gsheet.NewFromEnv(context.Background())
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	feedClient, err := feed.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize change feed client", "error", err)
		os.Exit(1)
	}
	defer feedClient.Close()

	worker := mirror.NewWorker(repo, sheetsClient, cfg.MirrorBatchSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, done := cli.GracefulShutdown(logger, 30*time.Second, cancel)

	g, gctx := errgroup.WithContext(ctx)

	// Drain anything missed while the worker was down, then follow the
	// live change feed.
	g.Go(func() error {
		if err := worker.StartupSync(gctx); err != nil {
			logger.Error("Startup sync failed", "error", err)
			// Keep consuming; rows left pending retry on next start.
		}
		return nil
	})
	g.Go(func() error {
		return feedClient.Consume(gctx, worker.HandleChange)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Mirror worker failed", "error", err)
		os.Exit(1)
	}

	<-done
	logger.Info("Mirror worker stopped gracefully")
}
