// Package main is the entry point for the watchlist-service API.
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/template/html/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"watchlist-service/internal/app/service"
	"watchlist-service/internal/config"
	"watchlist-service/internal/domain"
	"watchlist-service/internal/infra/memcache"
	"watchlist-service/internal/infra/postgres"
	"watchlist-service/internal/infra/postgres/migrations"
	"watchlist-service/internal/infra/rapidapi"
	rediscache "watchlist-service/internal/infra/redis"
	"watchlist-service/internal/job"
	"watchlist-service/internal/logger"
	"watchlist-service/internal/realtime"
	"watchlist-service/internal/transport/httpserver"
	"watchlist-service/internal/transport/httpserver/middleware"
	"watchlist-service/internal/validator"
	"watchlist-service/pkg/locker"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(
		logger.Config{
			Service: cfg.App.Name,
			Level:   cfg.Logger.Level,
			Format:  cfg.Logger.Format,
			Output:  cfg.Logger.Output,
		},
		logger.SentryConfig{
			Enabled:     cfg.Sentry.Enabled,
			DSN:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		},
	)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting watchlist-service",
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.App.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := postgres.NewConnection(ctx,
		postgres.Config{
			Host:         cfg.Database.Host,
			Port:         cfg.Database.Port,
			Name:         cfg.Database.Name,
			User:         cfg.Database.User,
			Password:     cfg.Database.Password,
			SSLMode:      cfg.Database.SSLMode,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
			MaxLifetime:  cfg.Database.MaxLifetime,
			LogQueries:   cfg.Database.LogQueries,
			AppName:      cfg.App.Name,
		},
		log.Logger,
	)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() { _ = postgres.Close(db) }()

	// Run migrations
	if err := migrations.Run(db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("database migrations completed")

	repo := postgres.NewRepository(db)

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()
	log.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr()))

	// Response cache
	var cache domain.Cache
	switch cfg.Cache.Backend {
	case config.CacheBackendMemory:
		cache = memcache.New()
	default:
		cache = rediscache.NewCache(redisClient, log.Logger, cfg.Cache.KeyPrefix)
	}
	log.Info("response cache configured",
		zap.String("backend", cfg.Cache.Backend),
		zap.Duration("title_ttl", cfg.Cache.TitleTTL),
		zap.Duration("list_ttl", cfg.Cache.ListTTL),
	)

	// Movie API
	if cfg.RapidAPI.Key == "" {
		log.Warn("rapidapi.key is not set; movie lookups will fail until it is configured")
	}
	api := rapidapi.New(
		rapidapi.Config{
			BaseURL: cfg.RapidAPI.BaseURL,
			APIKey:  cfg.RapidAPI.Key,
			APIHost: cfg.RapidAPI.Host,
			CB: rapidapi.CBConfig{
				Enabled:      cfg.RapidAPI.CB.Enabled,
				MaxRequests:  cfg.RapidAPI.CB.MaxRequests,
				Interval:     cfg.RapidAPI.CB.Interval,
				Timeout:      cfg.RapidAPI.CB.Timeout,
				FailureRatio: cfg.RapidAPI.CB.FailureRatio,
			},
		},
		log.Logger,
	)

	gateway := service.NewMovieGateway(api, cache, service.GatewayConfig{
		TitleTTL:           cfg.Cache.TitleTTL,
		ListTTL:            cfg.Cache.ListTTL,
		PopularConcurrency: cfg.Cache.PopularConcurrency,
	}, log.Logger)

	// Realtime notifications
	hub := realtime.NewHub(log.Logger, realtime.WithBufferSize(cfg.Broadcast.BufferSize))
	defer hub.Close()

	var broadcaster domain.Broadcaster = hub
	if cfg.Broadcast.Relay {
		relay := rediscache.NewRelay(redisClient, cfg.Broadcast.ChannelPrefix, hub, log.Logger)
		if err := relay.Start(ctx); err != nil {
			log.Fatal("failed to start broadcast relay", zap.Error(err))
		}
		defer relay.Stop()

		broadcaster = rediscache.NewPublisher(redisClient, cfg.Broadcast.ChannelPrefix, log.Logger)
		log.Info("broadcast relay enabled", zap.String("channel_prefix", cfg.Broadcast.ChannelPrefix))
	}

	// Create services
	catalogSvc := service.NewCatalogService(gateway, repo, log.Logger)
	watchlistSvc := service.NewWatchlistService(repo, gateway, log.Logger)
	broadcastSvc := service.NewBroadcastService(broadcaster, log.Logger)

	// Popular warmup with distributed locking
	var warmup *job.WarmupScheduler
	if cfg.Warmup.Enabled {
		warmup = job.NewWarmupScheduler(
			catalogSvc,
			job.WarmupConfig{
				Interval: cfg.Warmup.Interval,
				Timeout:  cfg.Warmup.Timeout,
				Limit:    cfg.Warmup.Limit,
			},
			log.Logger,
			locker.NewRedisLocker(redisClient, log.Logger),
		)
		warmup.Start(cfg.Warmup.OnStartup)
	}

	// Dashboard templates
	views := html.New("./web/templates", ".html")
	views.Reload(cfg.App.Debug)

	// Create HTTP server
	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Port:       cfg.App.Port,
			BodyLimit:  1024 * 1024, // 1MB
			UserHeader: cfg.Auth.UserHeader,
			AdminToken: cfg.Auth.AdminToken,
			Views:      views,
		},
		httpserver.Services{
			Catalog:   catalogSvc,
			Watchlist: watchlistSvc,
			Refresher: broadcastSvc,
			Hub:       hub,
			Readiness: []middleware.Pinger{
				func(ctx context.Context) error { return postgres.HealthCheck(ctx, db) },
				func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
			},
		},
		validator.New(),
		log.Logger,
	)

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Info("shutdown signal received")

		if warmup != nil {
			warmup.Stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.App.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error("server shutdown error", zap.Error(err))
		}
	}()

	// Start server
	if err := server.Start(cfg.App.Port); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
