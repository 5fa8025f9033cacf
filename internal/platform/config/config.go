package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string

	RequestTimeout     time.Duration
	OutboxBatchSize    int
	OutboxPollInterval time.Duration

	EnableOutboxRelay          bool
	EnableNotificationConsumer bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "trueque"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,

		RequestTimeout:     envDuration("REQUEST_TIMEOUT_MS", 5*time.Second),
		OutboxBatchSize:    envInt("OUTBOX_BATCH_SIZE", 100),
		OutboxPollInterval: envDuration("OUTBOX_POLL_INTERVAL_MS", 2*time.Second),

		EnableOutboxRelay:          envBool("ENABLE_OUTBOX_RELAY", true),
		EnableNotificationConsumer: envBool("ENABLE_NOTIFICATION_CONSUMER", true),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	millis := envInt(name, 0)
	if millis <= 0 {
		return fallback
	}
	return time.Duration(millis) * time.Millisecond
}
