// The gastos-worker drains the spreadsheet-mirror queue: expenses saved
// to the local database backend are appended to the Google Sheet, with a
// periodic sweep picking up anything the queue missed.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"gastos/internal/amqp"
	"gastos/internal/config"
	applog "gastos/internal/log"
	"gastos/internal/postgres"
	gsheet "gastos/internal/sheets/google"
	"gastos/internal/storage"
	"gastos/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", applog.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the sync worker")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		local worker.LocalStore
		err   error
	)
	switch cfg.DataBackend {
	case "postgres":
		repo, repoErr := postgres.NewRepository(cfg.PostgresDSN)
		if repoErr != nil {
			err = repoErr
		} else {
			defer repo.Close()
			local = repo
		}
	case "sqlite":
		repo, repoErr := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if repoErr != nil {
			err = repoErr
		} else {
			defer repo.Close()
			local = repo
		}
	default:
		logger.Error("sync worker needs a local database backend",
			applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	if err != nil {
		logger.Error("failed to open local store", applog.FieldError, err)
		os.Exit(1)
	}

	mirror, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		logger.Error("failed to initialize sheets mirror", applog.FieldError, err)
		os.Exit(1)
	}

	queue, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("failed to connect to AMQP", applog.FieldError, err)
		os.Exit(1)
	}
	defer queue.Close()

	w := worker.NewSyncWorker(local, mirror, cfg.SyncBatchSize, logger)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())
		cancel()
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return queue.ConsumeExpenseSync(gctx, func(msg *amqp.ExpenseSyncMessage) error {
			return w.HandleSyncMessage(gctx, msg)
		})
	})
	g.Go(func() error {
		return w.RunSweeper(gctx, cfg.SyncInterval)
	})

	logger.Info("sync worker running",
		applog.FieldBackend, cfg.DataBackend,
		"queue", cfg.AMQPQueue,
		"sweep_interval", cfg.SyncInterval.String())

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("worker stopped gracefully")
}
