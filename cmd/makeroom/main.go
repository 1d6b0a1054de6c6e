package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/makeroom/internal/api"
	"github.com/eldtechnologies/makeroom/internal/config"
	"github.com/eldtechnologies/makeroom/internal/discord"
	"github.com/eldtechnologies/makeroom/internal/handlers"
	"github.com/eldtechnologies/makeroom/internal/rooms"
	"github.com/eldtechnologies/makeroom/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	} else {
		logger.Warn().Str("level", cfg.LogLevel).Msg("unknown log level, using info")
		logger = logger.Level(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Audit log: PostgreSQL when configured, else SQLite when a path is given
	var audit store.DataStore
	switch {
	case cfg.DatabaseURL != "":
		logger.Info().Msg("running database migrations...")
		if err := store.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
		logger.Info().Msg("migrations completed")

		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		defer pgStore.Close()
		audit = pgStore
		logger.Info().Msg("connected to PostgreSQL")
	case cfg.SQLitePath != "":
		sqliteStore, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		defer sqliteStore.Close()
		audit = sqliteStore
		logger.Info().Str("path", cfg.SQLitePath).Msg("opened SQLite audit log")
	default:
		logger.Info().Msg("audit log disabled")
	}

	// Owner bindings and provisioning locks: Redis when configured, else in-process
	var (
		owners store.OwnerStore = store.NewMemoryOwnerStore()
		locker store.Locker     = store.NewKeyedMutex()
		redis  handlers.Pinger
	)
	if cfg.RedisURL != "" {
		redisStore, err := store.NewRedisStore(ctx, cfg.RedisURL, cfg.LockTTL, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		owners, locker, redis = redisStore, redisStore, redisStore
		logger.Info().Msg("connected to Redis")
	} else {
		logger.Warn().Msg("REDIS_URL not set, room owners are kept in memory")
	}

	gateway, err := discord.New(cfg.Token, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("discord session failed")
	}

	conv := rooms.DefaultConventions()
	conv.CategoryName = cfg.CategoryName
	conv.TriggerName = cfg.TriggerName
	conv.RoomPrefix = cfg.RoomPrefix
	conv.ModChannelName = cfg.ModChannelName

	orchestrator, err := rooms.New(rooms.Options{
		Platform:    gateway,
		Owners:      owners,
		Locker:      locker,
		Audit:       audit,
		Conventions: conv,
		Logger:      logger,
		LockWait:    cfg.LockWait,
		Timeout:     cfg.PlatformTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid room configuration")
	}

	gateway.Bind(ctx, orchestrator)
	if err := gateway.Open(); err != nil {
		logger.Fatal().Err(err).Msg("gateway connection failed")
	}

	// Ops server
	router := api.NewRouter(logger, handlers.NewHandler(audit, redis, gateway))
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Str("category", conv.CategoryName).
			Msg("starting MakeRoom")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	logger.Info().Msg("shutting down...")

	if err := gateway.Close(); err != nil {
		logger.Error().Err(err).Msg("gateway close failed")
	}

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("stopped")
}
