package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Upstream analysis service (extraction, optimization, source search, history)
	AnalysisAPIBaseURL string
	APITimeout         time.Duration

	// Database configuration for the skip-confirmation preference
	DatabaseURL string

	// Kafka configuration for workflow events. Empty servers disables publishing.
	KafkaBootstrapServers string
	KafkaTopicEvents      string

	// Server configuration
	ServerPort string
	LogLevel   string

	// CORS configuration
	CORSOrigins []string

	// Workflow configuration
	DefaultTargetCountries []string
	ErrorDisplayTime       time.Duration
	SessionTTL             time.Duration
	HistoryCacheTTL        time.Duration
	MaxContextTitleChars   int

	// Feature flags
	OptimizeFreeText bool
	ConfirmationStep bool

	// Rate limiting per client
	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		AnalysisAPIBaseURL:    strings.TrimRight(os.Getenv("ANALYSIS_API_BASE_URL"), "/"),
		DatabaseURL:           getEnvWithDefault("DATABASE_URL", "insight_explorer.db"),
		KafkaBootstrapServers: os.Getenv("KAFKA_BOOTSTRAP_SERVERS"),
		KafkaTopicEvents:      getEnvWithDefault("KAFKA_TOPIC_EVENTS", "insight.workflow.events"),
		ServerPort:            getEnvWithDefault("SERVER_PORT", "8080"),
		LogLevel:              getEnvWithDefault("LOG_LEVEL", "INFO"),
		MaxContextTitleChars:  500,
	}

	var err error
	if cfg.APITimeout, err = getDurationWithDefault("API_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.ErrorDisplayTime, err = getDurationWithDefault("ERROR_DISPLAY_TIME", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDurationWithDefault("SESSION_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.HistoryCacheTTL, err = getDurationWithDefault("HISTORY_CACHE_TTL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.OptimizeFreeText, err = getBoolWithDefault("FEATURE_OPTIMIZE_FREE_TEXT", true); err != nil {
		return nil, err
	}
	if cfg.ConfirmationStep, err = getBoolWithDefault("FEATURE_CONFIRMATION_STEP", true); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = getFloatWithDefault("RATE_LIMIT_RPS", 5); err != nil {
		return nil, err
	}
	burst, err := getFloatWithDefault("RATE_LIMIT_BURST", 10)
	if err != nil {
		return nil, err
	}
	cfg.RateLimitBurst = int(burst)

	cfg.CORSOrigins = splitList(getEnvWithDefault("CORS_ORIGINS", "http://localhost:3000"))
	cfg.DefaultTargetCountries = splitList(getEnvWithDefault("DEFAULT_TARGET_COUNTRIES", "KR,US"))
	for i := range cfg.DefaultTargetCountries {
		cfg.DefaultTargetCountries[i] = strings.ToUpper(cfg.DefaultTargetCountries[i])
	}

	// Validate required configuration
	if cfg.AnalysisAPIBaseURL == "" {
		return nil, fmt.Errorf("ANALYSIS_API_BASE_URL is required")
	}
	if len(cfg.DefaultTargetCountries) != 2 {
		return nil, fmt.Errorf("DEFAULT_TARGET_COUNTRIES must list exactly two country codes, got %d", len(cfg.DefaultTargetCountries))
	}
	if cfg.APITimeout <= 0 {
		return nil, fmt.Errorf("API_TIMEOUT must be positive")
	}

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationWithDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

func getBoolWithDefault(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

func getFloatWithDefault(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return f, nil
}

// splitList splits a comma separated value and drops blank entries
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
