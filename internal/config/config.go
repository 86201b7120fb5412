package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	DatabaseURL      string
	ServerPort       string
	BaseURL          string
	FrontendURL      string
	OpenAIKey        string
	AIModel          string
	AIBaseURL        string
	EnableHSTS       bool
	RedisURL         string
	RabbitMQURL      string
	RabbitMQPrefetch int
	JWKSURL          string
	JWTIssuer        string
	JWTSecret        string
	RateLimit        string
	RemindersFile    string
	WorkerDebugMode  bool
	ServerDebugMode  bool
	OTELEnabled      bool
	OTELEndpoint     string
}

// Reminders holds the reminder-offset configuration, optionally overridden
// from a YAML file referenced by REMINDERS_FILE.
type Reminders struct {
	// Offsets are durations before the due instant at which reminders fire.
	// Zero means "at the due instant".
	Offsets []time.Duration `yaml:"offsets"`
	// Timezone is the IANA zone used to resolve due date+time into an instant.
	// Empty means the process-local zone.
	Timezone string `yaml:"timezone"`
}

// UnmarshalYAML accepts offsets in Go duration syntax ("30m", "1h", "0s")
func (r *Reminders) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Offsets  []string `yaml:"offsets"`
		Timezone string   `yaml:"timezone"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	r.Timezone = raw.Timezone
	r.Offsets = nil
	for _, s := range raw.Offsets {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid reminder offset %q: %w", s, err)
		}
		r.Offsets = append(r.Offsets, d)
	}
	return nil
}

// DefaultReminderOffsets mirrors the notification ladder: 60, 30, 10, 5 and
// 1 minute before the due instant, then at the instant itself.
func DefaultReminderOffsets() []time.Duration {
	return []time.Duration{
		60 * time.Minute,
		30 * time.Minute,
		10 * time.Minute,
		5 * time.Minute,
		1 * time.Minute,
		0,
	}
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:3000"),
		OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
		AIModel:          getEnv("AI_MODEL", ""),
		AIBaseURL:        getEnv("AI_BASE_URL", ""),
		EnableHSTS:       getEnvBool("ENABLE_HSTS", false),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),
		JWKSURL:          getEnv("JWKS_URL", ""),
		JWTIssuer:        getEnv("JWT_ISSUER", ""),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		RateLimit:        getEnv("RATE_LIMIT", "5-S"),
		RemindersFile:    getEnv("REMINDERS_FILE", ""),
		WorkerDebugMode:  getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode:  getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:      getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required for job queueing (AI features require RabbitMQ)")
	}

	if cfg.JWKSURL == "" && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("either JWKS_URL or JWT_SECRET is required for token verification")
	}

	return cfg, nil
}

// LoadReminders returns the reminder configuration, reading the YAML file at
// path when it is non-empty. Missing or partial files fall back to defaults.
func LoadReminders(path string) (*Reminders, error) {
	rem := &Reminders{Offsets: DefaultReminderOffsets()}
	if path == "" {
		return rem, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reminders file: %w", err)
	}

	var fileCfg Reminders
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse reminders file: %w", err)
	}

	if len(fileCfg.Offsets) > 0 {
		rem.Offsets = fileCfg.Offsets
	}
	rem.Timezone = fileCfg.Timezone

	return rem, nil
}

// Location resolves the configured timezone, defaulting to the local zone.
func (r *Reminders) Location() (*time.Location, error) {
	if r.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid reminders timezone %q: %w", r.Timezone, err)
	}
	return loc, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
