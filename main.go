package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/backlot-hq/backlot-backend/config"
	"github.com/backlot-hq/backlot-backend/db"
	"github.com/backlot-hq/backlot-backend/handlers"
	"github.com/backlot-hq/backlot-backend/internal/cache"
	"github.com/backlot-hq/backlot-backend/internal/events"
	"github.com/backlot-hq/backlot-backend/internal/store/postgres"
	"github.com/backlot-hq/backlot-backend/logger"
	entryservice "github.com/backlot-hq/backlot-backend/models/entry/service"
	"github.com/backlot-hq/backlot-backend/pkg/geocode"
	"github.com/backlot-hq/backlot-backend/router"
	"github.com/backlot-hq/backlot-backend/services"
	"github.com/redis/go-redis/v9"
)

var version = "dev"

func main() {
	logger.InitLogger()
	log := logger.GetLogger()
	defer logger.Close()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	if err := db.RunMigrations(cfg.Database.URL()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	pool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	redisOptions := &redis.Options{
		Addr:         cfg.Redis.Address,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}
	if cfg.Redis.UseTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOptions)
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Warnw("Failed to close redis client", "error", err)
		}
	}()

	// Stores
	entryStore := postgres.NewEntryStore(pool)
	membershipStore := postgres.NewMembershipStore(pool)
	userStore := postgres.NewUserStore(pool)

	// Redis-backed layers
	queryCache := cache.NewQueryCache(redisClient, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
	draftStore := cache.NewDraftStore(redisClient)
	eventPublisher := events.NewRedisPublisher(redisClient, events.DefaultConfig())

	// Notifications are optional: without a Resend key, rejections simply
	// don't email.
	var notifier entryservice.RejectionNotifier
	if cfg.Email.ResendAPIKey != "" {
		notifier = services.NewEmailService(&cfg.Email, userStore)
	} else {
		log.Warn("RESEND_API_KEY not set, rejection emails disabled")
	}

	entryService := entryservice.NewEntryService(entryStore, queryCache, eventPublisher, notifier)

	geocoder := geocode.NewClient(
		cfg.Geocoding.BaseURL,
		cfg.Geocoding.APIKey,
		time.Duration(cfg.Geocoding.TimeoutSeconds)*time.Second,
	)
	healthService := services.NewHealthService(pool, redisClient, version)

	deps := router.Dependencies{
		Config:        cfg,
		EntryHandler:  handlers.NewEntryHandler(entryService, membershipStore, draftStore),
		DraftHandler:  handlers.NewDraftHandler(draftStore),
		RouteHandler:  handlers.NewRouteHandler(geocoder),
		HealthHandler: handlers.NewHealthHandler(healthService),
		Memberships:   membershipStore,
		Logger:        log,
	}
	r := router.SetupRouter(deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Forced server shutdown", "error", err)
	}
}
