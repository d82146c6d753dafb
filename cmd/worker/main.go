package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/simonkvalheim/hm9-accounts/internal/config"
	"github.com/simonkvalheim/hm9-accounts/internal/ledger"
	"github.com/simonkvalheim/hm9-accounts/internal/logging"
	"github.com/simonkvalheim/hm9-accounts/internal/queue"
	"github.com/simonkvalheim/hm9-accounts/internal/repository"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)

	if cfg.StoreDriver != config.DriverPostgres {
		// The api runs its own worker for the in-memory store
		fatal("worker requires the postgres store driver", fmt.Errorf("STORE_DRIVER=%s", cfg.StoreDriver))
	}

	// Connect to database
	db, err := connectDB(cfg.DatabaseURL)
	if err != nil {
		fatal("failed to connect to database", err)
	}
	defer db.Close()
	slog.Info("connected to database")

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()

	// Create context that cancels on shutdown signal
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		fatal("failed to connect to Redis", err)
	}
	slog.Info("connected to Redis")

	// The worker only deposits and withdraws, so no customer directory is needed
	service := ledger.NewService(repository.NewAccountRepository(db), nil)
	worker := queue.NewWorker(redisClient, service)

	// Handle shutdown signals
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutdown signal received, stopping worker")
		cancel()
		worker.Stop()
	}()

	slog.Info("starting balance operation worker")
	worker.Start(ctx)

	slog.Info("worker stopped")
}

// connectDB creates a connection pool to PostgreSQL
func connectDB(databaseURL string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}

func fatal(msg string, err error) {
	slog.Error(msg, slog.String("error", err.Error()))
	os.Exit(1)
}
