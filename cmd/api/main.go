package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/simonkvalheim/hm9-accounts/internal/auth"
	"github.com/simonkvalheim/hm9-accounts/internal/bootstrap"
	"github.com/simonkvalheim/hm9-accounts/internal/config"
	"github.com/simonkvalheim/hm9-accounts/internal/customer"
	"github.com/simonkvalheim/hm9-accounts/internal/handler"
	"github.com/simonkvalheim/hm9-accounts/internal/ledger"
	"github.com/simonkvalheim/hm9-accounts/internal/logging"
	appMiddleware "github.com/simonkvalheim/hm9-accounts/internal/middleware"
	"github.com/simonkvalheim/hm9-accounts/internal/queue"
	"github.com/simonkvalheim/hm9-accounts/internal/repository"
)

// accountStore is what the api needs from a store driver
type accountStore interface {
	ledger.AccountStore
	handler.Pinger
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Select the store driver
	var store accountStore
	switch cfg.StoreDriver {
	case config.DriverMemory:
		slog.Warn("using in-memory store, accounts are lost on restart")
		store = repository.NewMemoryAccountRepository()
	default:
		db, err := connectDB(cfg.DatabaseURL)
		if err != nil {
			fatal("failed to connect to database", err)
		}
		defer db.Close()
		slog.Info("connected to database")

		if err := bootstrap.Initialize(ctx, db); err != nil {
			fatal("failed to initialize database", err)
		}
		store = repository.NewAccountRepository(db)
	}

	// Connect to Redis if the queue or the customer cache needs it
	var redisClient *redis.Client
	if cfg.UsesRedis() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			fatal("failed to connect to Redis", err)
		}
		slog.Info("connected to Redis", slog.String("addr", cfg.RedisURL))
	}

	// Customer directory, cached when a TTL is configured
	var customers ledger.CustomerDirectory = customer.NewClient(cfg.CustomerServiceURL, cfg.CustomerTimeout)
	if cfg.CustomerCacheTTL > 0 {
		customers = customer.NewCachedDirectory(customers, redisClient, cfg.CustomerCacheTTL)
	}

	service := ledger.NewService(store, customers)

	// Initialize queue publisher if async mode is enabled
	var publisher *queue.Publisher
	if cfg.AsyncMode {
		publisher = queue.NewPublisher(redisClient)
		slog.Info("async mode enabled, balance operations are queued")

		// A memory store cannot be shared with a separate worker process
		if cfg.StoreDriver == config.DriverMemory {
			worker := queue.NewWorker(redisClient, service)
			go worker.Start(ctx)
			slog.Info("started in-process worker for the in-memory store")
		}
	} else {
		slog.Info("running in sync mode (set ASYNC_MODE=true for async processing)")
	}

	accountHandler := handler.NewAccountHandler(service, publisher)

	// Set up router
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(appMiddleware.CORS(appMiddleware.DefaultCORSConfig()))
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check (no auth needed)
	r.Get("/health", handler.Health(store))

	r.Route("/v1", func(r chi.Router) {
		if cfg.JWTSecret != "" {
			authMiddleware := appMiddleware.NewAuthMiddleware(auth.NewService(auth.DefaultConfig(cfg.JWTSecret)))
			r.Use(authMiddleware.RequireAuth)
		} else {
			slog.Warn("JWT_SECRET not set, /v1 routes are unauthenticated")
		}

		accountHandler.RegisterRoutes(r)
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", slog.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server failed", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server stopped")
}

// connectDB creates a connection pool to PostgreSQL
func connectDB(databaseURL string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Verify connection works
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
