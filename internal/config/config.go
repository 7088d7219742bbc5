package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Logging struct {
		Dir   string
		Level string
	}
	DB struct {
		DSN string
	}
	Kafka struct {
		Broker  string
		Topic   string
		GroupID string
	}
	Registry struct {
		BaseURL string
	}
	Probe struct {
		TimeoutSeconds       int
		HealthTimeoutSeconds int
	}
	Monitor struct {
		SchemaIntervalSeconds       int
		QualityIntervalSeconds      int
		AvailabilityIntervalSeconds int
		ContractPageLimit           int
		QueueSize                   int
		MaxWorkers                  int
	}
	Email struct {
		SMTPServer string
		SMTPPort   int
		Username   string
		Password   string
		FromEmail  string
		FromName   string
	}
	Telegram struct {
		BotToken string
		ChatID   int64
	}
	Notification struct {
		QueueSize         int
		MaxWorkers        int
		DedupWindowMin    int
		RateLimitPerHour  int
		MaxRetries        int
		RetrySweepSeconds int
		SendRatePerSecond int
	}
	API struct {
		Port     string
		BasePath string
	}
	FrontendURL string
}

// Load reads environment variables, applies defaults, and returns a Config.
// required lists the env vars the calling process cannot run without.
func Load(required ...string) (Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config

	cfg.Logging.Dir = envOr("LOG_DIR", "logs")
	cfg.Logging.Level = envOr("LOG_LEVEL", "info")

	cfg.DB.DSN = os.Getenv("DB_DSN")

	cfg.Kafka.Broker = os.Getenv("KAFKA_BROKER")
	cfg.Kafka.Topic = envOr("KAFKA_TOPIC", "datapact_alerts")
	cfg.Kafka.GroupID = envOr("KAFKA_GROUP_ID", "notification-service")

	cfg.Registry.BaseURL = envOr("CONTRACT_SERVICE_URL", "http://contract-service:8000")

	cfg.Probe.TimeoutSeconds = envInt("PROBE_TIMEOUT_SECONDS", 30)
	cfg.Probe.HealthTimeoutSeconds = envInt("PROBE_HEALTH_TIMEOUT_SECONDS", 10)

	cfg.Monitor.SchemaIntervalSeconds = envInt("SCHEMA_CHECK_INTERVAL", 300)
	cfg.Monitor.QualityIntervalSeconds = envInt("QUALITY_CHECK_INTERVAL", 900)
	cfg.Monitor.AvailabilityIntervalSeconds = envInt("AVAILABILITY_CHECK_INTERVAL", 60)
	cfg.Monitor.ContractPageLimit = envInt("CONTRACT_PAGE_LIMIT", 100)
	cfg.Monitor.QueueSize = envInt("MONITOR_QUEUE_SIZE", 500)
	cfg.Monitor.MaxWorkers = envInt("MONITOR_MAX_WORKERS", 10)

	cfg.Email.SMTPServer = os.Getenv("EMAIL_SMTP_SERVER")
	cfg.Email.SMTPPort = envInt("EMAIL_SMTP_PORT", 1025)
	cfg.Email.Username = os.Getenv("EMAIL_USERNAME")
	cfg.Email.Password = os.Getenv("EMAIL_PASSWORD")
	cfg.Email.FromEmail = envOr("EMAIL_FROM", "datapact@example.com")
	cfg.Email.FromName = envOr("EMAIL_FROM_NAME", "DataPact")

	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if id, err := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64); err == nil {
		cfg.Telegram.ChatID = id
	}

	cfg.Notification.QueueSize = envInt("QUEUE_SIZE", 500)
	cfg.Notification.MaxWorkers = envInt("MAX_WORKERS", 10)
	cfg.Notification.DedupWindowMin = envInt("DEDUP_WINDOW_MINUTES", 60)
	cfg.Notification.RateLimitPerHour = envInt("RATE_LIMIT_PER_HOUR", 100)
	cfg.Notification.MaxRetries = envInt("MAX_RETRIES", 3)
	cfg.Notification.RetrySweepSeconds = envInt("RETRY_SWEEP_INTERVAL", 300)
	cfg.Notification.SendRatePerSecond = envInt("SEND_RATE_PER_SECOND", 10)

	cfg.API.Port = envOr("API_PORT", ":8080")
	cfg.API.BasePath = envOr("API_BASE_PATH", "/api/v1")

	cfg.FrontendURL = envOr("FRONTEND_URL", "http://localhost:3000")

	// Validate required settings
	var missing []string
	for _, key := range required {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configurations: %v", missing)
	}

	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}
