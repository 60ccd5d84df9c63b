// Package backend assembles a store backend and optional change feed
// from the application configuration.
package backend

import (
	"fmt"
	"log/slog"

	"github.com/vansh-20/school-finance-app/internal/config"
	"github.com/vansh-20/school-finance-app/internal/feed"
	"github.com/vansh-20/school-finance-app/internal/store"
	"github.com/vansh-20/school-finance-app/internal/store/memory"
	"github.com/vansh-20/school-finance-app/internal/storage"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result bundles the assembled store with its optional feed client.
type Result struct {
	Store   store.Store
	Feed    *feed.Client
	Cleanup CleanupFunc
}

// Build creates the backend selected by cfg.DataBackend. With an AMQP
// URL configured, sqlite writes publish change messages; the memory
// backend never has a feed.
func Build(cfg *config.Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.DataBackend {
	case "memory":
		logger.Info("Initialized memory backend")
		return &Result{
			Store:   memory.New(),
			Cleanup: func() error { return nil },
		}, nil

	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite repository: %w", err)
		}

		var feedClient *feed.Client
		if cfg.AMQPURL != "" {
			feedClient, err = feed.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
			if err != nil {
				repo.Close()
				return nil, fmt.Errorf("initialize change feed: %w", err)
			}
			repo.SetPublisher(feedClient)
			logger.Info("Change feed enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		} else {
			logger.Info("Change feed disabled - no AMQP_URL provided")
		}

		logger.Info("Initialized sqlite backend", "path", cfg.SQLiteDBPath)
		return &Result{
			Store: repo,
			Feed:  feedClient,
			Cleanup: func() error {
				if feedClient != nil {
					feedClient.Close()
				}
				return repo.Close()
			},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.DataBackend)
	}
}
