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
	ServiceName      string
	HTTPPort         string
	PostgresDSN      string
	KafkaBrokers     []string
	IdentityAPIURL   string
	IdentityAPIToken string

	EnableProfileReconciler bool
	EnableOutboxRelay       bool
	WorkerPollInterval      time.Duration
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "dealerdesk"
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
		ServiceName:      service,
		HTTPPort:         port,
		PostgresDSN:      os.Getenv("POSTGRES_DSN"),
		KafkaBrokers:     brokers,
		IdentityAPIURL:   os.Getenv("IDENTITY_API_URL"),
		IdentityAPIToken: os.Getenv("IDENTITY_API_TOKEN"),

		EnableProfileReconciler: envBool("ENABLE_PROFILE_RECONCILER", true),
		EnableOutboxRelay:       envBool("ENABLE_OUTBOX_RELAY", true),
		WorkerPollInterval:      envDuration("WORKER_POLL_INTERVAL_SECONDS", 2*time.Second),
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

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
