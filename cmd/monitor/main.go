package main

import (
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"datapact/internal/config"
	"datapact/internal/events"
	"datapact/internal/logging"
	"datapact/internal/monitor"
	"datapact/internal/probe"
	"datapact/internal/registry"
)

func main() {
	// Load config
	cfg, err := config.Load("CONTRACT_SERVICE_URL", "KAFKA_BROKER")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Close()

	reg := registry.NewClient(cfg.Registry.BaseURL, 30*time.Second)
	prober := probe.NewClient(
		time.Duration(cfg.Probe.TimeoutSeconds)*time.Second,
		time.Duration(cfg.Probe.HealthTimeoutSeconds)*time.Second,
	)

	producer := events.NewProducer(cfg.Kafka.Broker, cfg.Kafka.Topic, logger)
	defer producer.Close()

	orch := monitor.NewOrchestrator(reg, prober, producer, logger)
	sched := monitor.NewScheduler(orch, reg, logger, cfg)

	var wg sync.WaitGroup
	sched.Start(&wg)
	logger.Infof("Compliance monitor started (schema every %ds, quality every %ds, availability every %ds)",
		cfg.Monitor.SchemaIntervalSeconds, cfg.Monitor.QualityIntervalSeconds, cfg.Monitor.AvailabilityIntervalSeconds)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Shutting down compliance monitor")
	sched.Stop()
	wg.Wait()
}
