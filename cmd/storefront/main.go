package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/manojvmehra/strob-store/internal/accountcart"
	"github.com/manojvmehra/strob-store/internal/auth"
	"github.com/manojvmehra/strob-store/internal/cart"
	"github.com/manojvmehra/strob-store/internal/catalog"
	"github.com/manojvmehra/strob-store/internal/events"
	"github.com/manojvmehra/strob-store/internal/guestcart"
	h "github.com/manojvmehra/strob-store/internal/http"
)

type Config struct {
	HTTPPort        string
	RedisAddr       string
	RedisPassword   string
	PostgresHost    string
	PostgresPort    int
	PostgresUser    string
	PostgresPass    string
	PostgresDB      string
	PGMigrations    string
	CatalogPath     string
	CatalogMigs     string
	KafkaBrokers    []string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	pgPort, err := strconv.Atoi(getEnv("POSTGRES_PORT", "5432"))
	if err != nil {
		pgPort = 5432
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		PostgresHost:    getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:    pgPort,
		PostgresUser:    getEnv("POSTGRES_USER", "storefront"),
		PostgresPass:    getEnv("POSTGRES_PASSWORD", "storefront"),
		PostgresDB:      getEnv("POSTGRES_DB", "storefront"),
		PGMigrations:    getEnv("POSTGRES_MIGRATIONS", "./migrations/postgres"),
		CatalogPath:     getEnv("CATALOG_DB_PATH", "./catalog.db"),
		CatalogMigs:     getEnv("CATALOG_MIGRATIONS", "./migrations/sqlite"),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	// Catalog (SQLite)
	catalogRepo, err := catalog.NewRepository(cfg.CatalogPath)
	if err != nil {
		logger.Fatal("failed to open catalog", zap.Error(err))
	}
	defer catalogRepo.Close()
	if err := catalogRepo.RunMigrations(cfg.CatalogMigs); err != nil {
		logger.Fatal("failed to migrate catalog", zap.Error(err))
	}
	logger.Info("catalog ready", zap.String("path", cfg.CatalogPath))

	// Account cart + profiles (Postgres)
	creds := &accountcart.Credentials{
		Host:              cfg.PostgresHost,
		Port:              cfg.PostgresPort,
		User:              cfg.PostgresUser,
		Password:          cfg.PostgresPass,
		DBName:            cfg.PostgresDB,
		MigrationsDirPath: cfg.PGMigrations,
	}
	pgStore, err := accountcart.NewPostgresStore(creds)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pgStore.Close()
	if err := pgStore.RunMigrations(creds); err != nil {
		logger.Fatal("failed to migrate postgres", zap.Error(err))
	}
	logger.Info("connected to postgres", zap.String("host", cfg.PostgresHost))

	accountStore := accountcart.NewBreakerStore(pgStore, logger)

	// Guest cart + sessions (Redis)
	ctx := context.Background()
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("redis connection failed", zap.Error(err))
	}
	logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))

	guestStore := guestcart.NewStore(redisClient, logger)

	// Identity
	users := auth.NewPostgresUserRepository(pgStore.DB())
	sessions := auth.NewSessionStore(redisClient)
	authManager := auth.NewManager(users, sessions, logger)

	// Cart core
	publisher := events.NewPublisher(logger, cfg.KafkaBrokers...)
	defer publisher.Close()

	cartManager := cart.NewManager(guestStore, accountStore, publisher, logger)
	cartManager.Attach(authManager)

	// Checkout completion consumer
	consumerCtx, stopConsumer := context.WithCancel(ctx)
	consumer := events.NewCheckoutConsumer(accountStore, cartManager, logger, cfg.KafkaBrokers...)
	go consumer.Run(consumerCtx)
	defer consumer.Close()
	defer stopConsumer()

	// HTTP API
	router := h.NewRouter(cartManager, authManager, catalogRepo, cfg.RequestTimeout, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("storefront starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
