package main

import (
	"context"
	"log"
	"time"

	"fieldtrack/internal/core/cache"
	"fieldtrack/internal/core/config"
	"fieldtrack/internal/core/logger"
	"fieldtrack/internal/core/server"
	trackingadapter "fieldtrack/internal/features/tracking/adapters"
	"fieldtrack/internal/features/tracking/domain"
	trackinghandler "fieldtrack/internal/features/tracking/handler"
	trackingservice "fieldtrack/internal/features/tracking/service"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
	)

	// Connect the journey store and verify it is reachable before serving.
	client, err := cache.Dial(cfg.Redis.URL)
	if err != nil {
		l.Fatal("Failed to connect Redis", zap.Error(err))
	}
	readCache := cache.NewRedisAdapter(client)
	if err := readCache.Ping(context.Background()); err != nil {
		l.Fatal("Redis health check failed", zap.Error(err))
	}
	l.Info("Redis connection verified")

	journeyStore := trackingadapter.NewRedisJourneyStore(client)

	policy := domain.Policy{
		AccuracyCeilingMeters: cfg.Tracking.AccuracyCeilingMeters,
		MaxSpeedMPS:           cfg.Tracking.MaxSpeedMPS,
		MinMovementMeters:     cfg.Tracking.MinMovementMeters,
	}

	manager := trackingservice.NewManager(
		policy,
		cfg.Tracking,
		journeyStore,
		trackingservice.SystemClock(),
		logger.Named("tracking"),
	)

	trackingHdl := trackinghandler.NewTrackingHandler(manager)
	journeyHdl := trackinghandler.NewJourneyHandler(
		journeyStore,
		readCache,
		time.Duration(cfg.Redis.ReadCacheTTLSeconds)*time.Second,
	)

	srv := server.New(cfg)

	// Register Routes
	srv.App.Post("/tracking/:actorID/start", trackingHdl.Start)
	srv.App.Post("/tracking/:actorID/pause", trackingHdl.Pause)
	srv.App.Post("/tracking/:actorID/end", trackingHdl.End)
	srv.App.Get("/tracking/:actorID/status", trackingHdl.Status)
	srv.App.Post("/tracking/:actorID/positions", trackingHdl.SubmitPosition)
	srv.App.Get("/journeys/:actorID/latest-location", journeyHdl.LatestLocation)
	srv.App.Get("/journeys/:actorID/:date", journeyHdl.GetJourney)

	if err := srv.Run(); err != nil {
		l.Fatal("Server failed to start", zap.Error(err))
	}
}
