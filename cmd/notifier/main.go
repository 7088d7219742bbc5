package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"datapact/internal/api"
	"datapact/internal/channel"
	"datapact/internal/config"
	"datapact/internal/db"
	"datapact/internal/dispatch"
	"datapact/internal/events"
	"datapact/internal/logging"
	"datapact/internal/models"
	"datapact/internal/registry"
	"datapact/internal/render"
	"datapact/internal/resolver"
	"datapact/internal/router"
)

func main() {
	// Load config
	cfg, err := config.Load("DB_DSN", "KAFKA_BROKER")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Close()

	// Connect to database
	dbConn, err := db.New(cfg.DB.DSN)
	if err != nil {
		logger.Errorf("Failed to connect to database: %v", err)
		log.Fatalf("Database connection failed: %v", err)
	}
	defer dbConn.Close()

	reg := registry.NewClient(cfg.Registry.BaseURL, 30*time.Second)
	renderer := render.New(cfg.FrontendURL)
	res := resolver.New(reg, dbConn, dbConn, logger)

	eventRouter := router.New(dbConn, res, renderer, logger, router.Config{
		DedupWindow:      time.Duration(cfg.Notification.DedupWindowMin) * time.Minute,
		RateLimitPerHour: cfg.Notification.RateLimitPerHour,
	})

	channels := map[string]channel.Channel{
		"email":    channel.NewEmailChannel(cfg, logger),
		"telegram": channel.NewTelegramChannel(cfg, logger),
	}
	dispatcher := dispatch.New(dbConn, channels, renderer, logger, dispatch.Config{
		QueueSize:  cfg.Notification.QueueSize,
		MaxWorkers: cfg.Notification.MaxWorkers,
		MaxRetries: cfg.Notification.MaxRetries,
		RetrySweep: time.Duration(cfg.Notification.RetrySweepSeconds) * time.Second,
	})

	var wg sync.WaitGroup
	dispatcher.Start(&wg)

	stream := api.NewStreamManager(logger)

	// Kafka alert consumer: same routing path as the HTTP event intake.
	consumer := events.NewConsumer(cfg.Kafka.Broker, cfg.Kafka.Topic, cfg.Kafka.GroupID,
		func(ctx context.Context, event models.Event) {
			created, err := eventRouter.RouteEvent(ctx, event)
			if err != nil {
				logger.Errorf("Routing of %s event for %s failed: %v", event.EventType, event.ContractName, err)
				return
			}
			for _, n := range created {
				dispatcher.Enqueue(n.ID)
				stream.Publish(n.RecipientEmail, []byte(fmt.Sprintf("New alert: %s", n.Subject)))
			}
		}, logger)
	consumer.Start(&wg)
	defer consumer.Close()

	// Start API server
	handler := api.NewHandler(dbConn, eventRouter, dispatcher, stream, logger, cfg)
	engine := api.NewRouter(handler, logger)
	logger.Infof("Starting API server on %s", cfg.API.Port)
	if err := engine.Run(cfg.API.Port); err != nil {
		logger.Errorf("API server failed: %v", err)
	}

	dispatcher.Stop()
	wg.Wait()
}
