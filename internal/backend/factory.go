package backend

import (
	"context"
	"fmt"

	"gastos/internal/amqp"
	"gastos/internal/config"
	applog "gastos/internal/log"
	"gastos/internal/postgres"
	gsheet "gastos/internal/sheets/google"
	"gastos/internal/storage"
	"gastos/internal/store/memory"
)

// Result holds the constructed backend, the optional mirror queue client
// (set when a local database backend runs with AMQP configured), and a
// cleanup function for resources.
type Result struct {
	Backend Backend
	Queue   *amqp.Client
	Cleanup func() error
}

// Factory creates backends from configuration.
type Factory struct {
	log *applog.Logger
}

func NewFactory(logger *applog.Logger) *Factory {
	return &Factory{log: logger.WithComponent(applog.ComponentBackend)}
}

// Create builds the backend named by the config. Local database backends
// also get the mirror queue when an AMQP URL is configured; queue setup
// failure degrades to running without a mirror.
func (f *Factory) Create(ctx context.Context, cfg *config.Config) (*Result, error) {
	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch t {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite repository: %w", err)
		}
		queue := f.dialQueue(cfg)
		f.log.Info("initialized sqlite backend",
			"db_path", cfg.SQLiteDBPath, "mirror_enabled", queue != nil)
		return &Result{Backend: repo, Queue: queue, Cleanup: repo.Close}, nil

	case Postgres:
		repo, err := postgres.NewRepository(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("initialize postgres repository: %w", err)
		}
		queue := f.dialQueue(cfg)
		f.log.Info("initialized postgres backend", "mirror_enabled", queue != nil)
		return &Result{Backend: repo, Queue: queue, Cleanup: repo.Close}, nil

	case Sheets:
		cli, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			return nil, fmt.Errorf("initialize sheets client: %w", err)
		}
		f.log.Info("initialized sheets backend")
		return &Result{Backend: cli}, nil

	default:
		f.log.Info("initialized memory backend")
		return &Result{Backend: memory.New()}, nil
	}
}

func (f *Factory) dialQueue(cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		return nil
	}
	queue, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		f.log.Warn("failed to initialize AMQP client, continuing without mirror", "error", err)
		return nil
	}
	return queue
}
