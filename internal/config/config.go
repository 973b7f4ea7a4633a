package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env string

	// Web (leaderboard)
	WebEnable   bool
	WebPort     int    `validate:"min=0,max=65535"`
	WebEndpoint string `validate:"required,endpoint"`

	// CORS
	AllowedOrigins []string

	// Persistence
	DatabaseEnable bool
	StoreURL       string `validate:"required_if=DatabaseEnable true"`

	// Admin listener for metrics and probes, 0 disables it
	AdminPort int `validate:"min=0,max=65535"`

	// Ranked snapshot cache, 0 ranks on every request
	SnapshotTTL time.Duration `validate:"gte=0"`

	// Head drop worker pool
	WorkerCount   int           `validate:"min=1"`
	QueueSize     int           `validate:"min=1"`
	BatchSize     int           `validate:"min=1"`
	FlushInterval time.Duration `validate:"gt=0"`
}

var endpointPattern = regexp.MustCompile(`^[A-Za-z0-9._~-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("endpoint", func(fl validator.FieldLevel) bool {
		return endpointPattern.MatchString(fl.Field().String())
	})
	return v
}

// Load loads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Env: getEnv("ENV", "development"),

		WebEnable:   getEnvBool("WEB_ENABLE", true),
		WebPort:     getEnvInt("WEB_PORT", 8080),
		WebEndpoint: strings.Trim(getEnv("WEB_ENDPOINT", "leaderboard"), "/"),

		DatabaseEnable: getEnvBool("DATABASE_ENABLE", true),
		StoreURL:       getEnv("STORE_URL", "memory://"),

		AdminPort:   getEnvInt("ADMIN_PORT", 9090),
		SnapshotTTL: getEnvDuration("SNAPSHOT_TTL", 0),

		WorkerCount:   getEnvInt("WORKER_COUNT", 2),
		QueueSize:     getEnvInt("QUEUE_SIZE", 1000),
		BatchSize:     getEnvInt("BATCH_SIZE", 100),
		FlushInterval: getEnvDuration("FLUSH_INTERVAL", 1*time.Second),
	}

	// CORS
	origins := getEnv("ALLOWED_ORIGINS", "*")
	for _, o := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges. The web port must be a real port when the
// leaderboard is enabled.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.WebEnable && c.WebPort == 0 {
		return fmt.Errorf("invalid configuration: WEB_PORT is required when WEB_ENABLE is set")
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
