package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Scoring service.
	ScoringBaseURL        string
	ScoringTimeout        time.Duration
	ScoringBreakerEnabled bool

	// Streaming assessor.
	KafkaBrokers       []string
	KafkaSourceTopic   string
	KafkaSinkTopic     string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration

	// WeatherAPI.com observation source.
	WeatherAPIKey       string
	WeatherAPIEnabled   bool
	WeatherAPITimeout   time.Duration
	WeatherAPICacheSize int
	WeatherAPICacheTTL  time.Duration
}

// LoadDotEnv loads variables from the given files (default ".env") without
// overriding ones already set. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	scoringTimeout, err := parseScoringTimeout()
	if err != nil {
		return nil, err
	}

	weatherTimeout, err := parsePositiveDuration("WEATHERAPI_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	cacheTTL, err := parsePositiveDuration("WEATHERAPI_CACHE_TTL", "10m")
	if err != nil {
		return nil, err
	}

	weatherKey := os.Getenv("WEATHERAPI_KEY")
	weatherEnabled := weatherKey != ""
	if v := os.Getenv("WEATHERAPI_ENABLED"); v != "" {
		weatherEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ScoringBaseURL:        sharedcfg.EnvOrDefault("SCORING_BASE_URL", "http://127.0.0.1:5000"),
		ScoringTimeout:        scoringTimeout,
		ScoringBreakerEnabled: os.Getenv("SCORING_BREAKER_ENABLED") == "true",

		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "weather-observations"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "training-assessments"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "training-assessor"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		WeatherAPIKey:       weatherKey,
		WeatherAPIEnabled:   weatherEnabled,
		WeatherAPITimeout:   weatherTimeout,
		WeatherAPICacheSize: parseCacheSize(),
		WeatherAPICacheTTL:  cacheTTL,
	}

	if u, err := url.Parse(cfg.ScoringBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("invalid SCORING_BASE_URL: must be an absolute http(s) URL")
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.WeatherAPIEnabled && cfg.WeatherAPIKey == "" {
		return nil, errors.New("WEATHERAPI_ENABLED is true but WEATHERAPI_KEY is not set")
	}

	return cfg, nil
}

func parseScoringTimeout() (time.Duration, error) {
	s := sharedcfg.EnvOrDefault("SCORING_TIMEOUT_MS", "10000")
	ms, err := strconv.Atoi(s)
	if err != nil || ms <= 0 {
		return 0, errors.New("invalid SCORING_TIMEOUT_MS: must be a positive number of milliseconds")
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseCacheSize() int {
	if s := os.Getenv("WEATHERAPI_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 256
}
