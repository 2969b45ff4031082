package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/weather-broker/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Adapter instance and the raw host settings it is built from.
	AdapterID         string
	AdapterConfigPath string
	Adapter           domain.Settings

	// Weather aggregation gateway.
	GatewayURL     string
	GatewayTimeout time.Duration
	GatewayRetries int

	// Snapshot cache policy.
	CacheTTL  time.Duration
	CacheSize int

	// PollInterval of zero disables the built-in poller.
	PollInterval time.Duration

	// Kafka snapshot publishing.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	gatewayTimeout, err := parsePositiveDuration("GATEWAY_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parsePositiveDuration("CACHE_TTL", "5m")
	if err != nil {
		return nil, err
	}
	pollInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("POLL_INTERVAL", "0s"))
	if err != nil || pollInterval < 0 {
		return nil, errors.New("invalid POLL_INTERVAL")
	}

	gatewayRetries, err := strconv.Atoi(sharedcfg.EnvOrDefault("GATEWAY_RETRIES", "3"))
	if err != nil || gatewayRetries < 0 {
		return nil, errors.New("invalid GATEWAY_RETRIES")
	}
	cacheSize, err := strconv.Atoi(sharedcfg.EnvOrDefault("CACHE_SIZE", "16"))
	if err != nil || cacheSize <= 0 {
		return nil, errors.New("invalid CACHE_SIZE")
	}

	adapterPath := os.Getenv("ADAPTER_CONFIG")
	settings, err := loadSettings(adapterPath)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("invalid KAFKA_ENABLED: must be a boolean")
		}
		kafkaEnabled = enabled
	}

	cfg := &Config{
		HTTPAddr:          sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:          sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:         sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:   shutdownTimeout,
		AdapterID:         sharedcfg.EnvOrDefault("ADAPTER_ID", uuid.NewString()),
		AdapterConfigPath: adapterPath,
		Adapter:           settings,
		GatewayURL:        sharedcfg.EnvOrDefault("GATEWAY_URL", "http://localhost:8080"),
		GatewayTimeout:    gatewayTimeout,
		GatewayRetries:    gatewayRetries,
		CacheTTL:          cacheTTL,
		CacheSize:         cacheSize,
		PollInterval:      pollInterval,
		KafkaBrokers:      brokers,
		KafkaTopic:        sharedcfg.EnvOrDefault("KAFKA_TOPIC", "weather-snapshots"),
		KafkaEnabled:      kafkaEnabled,
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required")
	}

	return cfg, nil
}

// loadSettings reads the adapter settings file, if any, then applies WEATHER_*
// overrides. Validation is left to domain.NewConfiguration.
func loadSettings(path string) (domain.Settings, error) {
	var s domain.Settings
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return s, fmt.Errorf("read ADAPTER_CONFIG: %w", err)
		}
		if err := yaml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("parse ADAPTER_CONFIG: %w", err)
		}
	}

	overrides := []struct {
		env   string
		field *string
	}{
		{"WEATHER_PROVIDER", &s.Provider},
		{"WEATHER_API_KEY", &s.APIKey},
		{"WEATHER_LAT", &s.Lat},
		{"WEATHER_LON", &s.Lon},
		{"WEATHER_CITY_ID", &s.CityID},
		{"WEATHER_CITY", &s.City},
		{"WEATHER_COUNTRY", &s.Country},
		{"WEATHER_UNITS", &s.Units},
		{"WEATHER_LANG", &s.Lang},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.env); ok {
			*o.field = v
		}
	}
	return s, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
