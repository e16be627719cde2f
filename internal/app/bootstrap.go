package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/nsqio/go-nsq"

	"changelog-digest/internal/config"
	"changelog-digest/internal/store"
	"changelog-digest/internal/worker"
)

type Dependencies struct {
	Conn *store.Conn
	// NSQProducer is nil when no nsqd host is configured.
	NSQProducer *nsq.Producer
}

// Bootstrap prepares the shared dependencies. The database connection is
// established in the background; onReady runs once it is usable.
func Bootstrap(ctx context.Context, cfg *config.Config, onReady func()) (*Dependencies, error) {
	deps := &Dependencies{Conn: store.NewConn()}

	if cfg.NSQDHost != "" {
		producer, err := nsq.NewProducer(cfg.NSQDHost, nsq.NewConfig())
		if err != nil {
			return nil, fmt.Errorf("nsq producer error: %w", err)
		}
		deps.NSQProducer = producer
	}

	go func() {
		db, err := OpenStore(ctx, cfg.DatabaseURL, cfg.MigrationPath, cfg.BootstrapRetryAttempts, cfg.RetryDelay())
		if err != nil {
			slog.Error("store connection failed, endpoints will report unavailable", "error", err)
			return
		}
		deps.Conn.Set(db)
		slog.Info("store connected")
		if onReady != nil {
			onReady()
		}
	}()

	return deps, nil
}

// OpenStore opens the database, pings it with retries and applies migrations.
func OpenStore(ctx context.Context, dsn, migrationPath string, attempts int, delay time.Duration) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := pingWithRetry(ctx, db, attempts, delay); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migration driver error: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(migrationPath, "postgres", driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migration instance error: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		db.Close()
		return nil, fmt.Errorf("migration up error: %w", err)
	}
	slog.Info("migrations applied successfully")

	return db, nil
}

func pingWithRetry(ctx context.Context, db *sql.DB, attempts int, delay time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		slog.Warn("failed to ping db, retrying...", "attempt", i+1, "max_attempts", attempts)
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return err
}

// StartRefreshConsumer subscribes to the refresh topic so other services can
// request runs. It returns nil when NSQ is not configured.
func StartRefreshConsumer(cfg *config.Config, trigger worker.Trigger) (*nsq.Consumer, error) {
	if cfg.NSQDHost == "" && cfg.NSQLookupd == "" {
		return nil, nil
	}

	consumer, err := nsq.NewConsumer(cfg.NSQRefreshTopic, cfg.NSQChannel, nsq.NewConfig())
	if err != nil {
		return nil, fmt.Errorf("nsq consumer error: %w", err)
	}
	consumer.AddHandler(worker.NewRefreshConsumer(trigger))

	if cfg.NSQLookupd != "" {
		err = consumer.ConnectToNSQLookupd(cfg.NSQLookupd)
	} else {
		err = consumer.ConnectToNSQD(cfg.NSQDHost)
	}
	if err != nil {
		consumer.Stop()
		return nil, fmt.Errorf("nsq consumer connect error: %w", err)
	}
	slog.Info("NSQ refresh consumer connected", "topic", cfg.NSQRefreshTopic, "channel", cfg.NSQChannel)
	return consumer, nil
}
