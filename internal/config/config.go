package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/benvon/napoleon/internal/models"
)

// Store drivers accepted by STORE_DRIVER
const (
	StoreDriverPostgres  = "postgres"
	StoreDriverFirestore = "firestore"
	StoreDriverMemory    = "memory"
)

// DefaultTrackerAnchorDate is the first day of the habit tracker analysis window
const DefaultTrackerAnchorDate = "2025-01-06"

// Config holds application configuration
type Config struct {
	ServerPort            string
	FrontendURL           string
	StoreDriver           string
	DatabaseURL           string
	FirestoreProjectID    string
	RedisURL              string
	RabbitMQURL           string
	RabbitMQPrefetch      int
	OpenAIKey             string
	AIModel               string
	AIBaseURL             string
	GoogleCredentialsFile string
	GoogleCalendarID      string
	Timezone              string
	Location              *time.Location
	TrackerAnchorDate     string
	RescheduleGateTTL     time.Duration
	DailyRescheduleAt     string
	EnableHSTS            bool
	WorkerDebugMode       bool
	ServerDebugMode       bool
	OTELEnabled           bool
	OTELEndpoint          string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(lookup func(string) string) (*Config, error) {
	env := envReader(lookup)
	cfg := &Config{
		ServerPort:            env.get("SERVER_PORT", "3400"),
		FrontendURL:           env.get("FRONTEND_URL", "http://localhost:3000"),
		StoreDriver:           env.get("STORE_DRIVER", StoreDriverPostgres),
		DatabaseURL:           env.get("DATABASE_URL", ""),
		FirestoreProjectID:    env.get("FIRESTORE_PROJECT_ID", ""),
		RedisURL:              env.get("REDIS_URL", ""),
		RabbitMQURL:           env.get("RABBITMQ_URL", ""),
		RabbitMQPrefetch:      env.getInt("RABBITMQ_PREFETCH", 1),
		OpenAIKey:             env.get("OPENAI_API_KEY", ""),
		AIModel:               env.get("AI_MODEL", ""),
		AIBaseURL:             env.get("AI_BASE_URL", ""),
		GoogleCredentialsFile: env.get("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleCalendarID:      env.get("GOOGLE_CALENDAR_ID", "primary"),
		Timezone:              env.get("TIMEZONE", "America/New_York"),
		TrackerAnchorDate:     env.get("TRACKER_ANCHOR_DATE", DefaultTrackerAnchorDate),
		RescheduleGateTTL:     env.getDuration("RESCHEDULE_GATE_TTL", 10*time.Minute),
		DailyRescheduleAt:     lookup("DAILY_RESCHEDULE_AT"),
		EnableHSTS:            env.getBool("ENABLE_HSTS", false),
		WorkerDebugMode:       env.getBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode:       env.getBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:           env.getBool("OTEL_ENABLED", false),
		OTELEndpoint:          env.get("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case StoreDriverFirestore:
		if cfg.FirestoreProjectID == "" {
			return nil, fmt.Errorf("FIRESTORE_PROJECT_ID is required when STORE_DRIVER=firestore")
		}
	case StoreDriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q (must be postgres, firestore or memory)", cfg.StoreDriver)
	}

	// The memory driver runs the reschedule worker in-process
	if cfg.StoreDriver != StoreDriverMemory && cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required for job queueing (rescheduling requires RabbitMQ)")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if _, err := time.Parse(models.DateLayout, cfg.TrackerAnchorDate); err != nil {
		return nil, fmt.Errorf("invalid TRACKER_ANCHOR_DATE %q: must be YYYY-MM-DD", cfg.TrackerAnchorDate)
	}

	if cfg.RescheduleGateTTL <= 0 {
		return nil, fmt.Errorf("RESCHEDULE_GATE_TTL must be positive")
	}

	for _, at := range strings.Split(cfg.DailyRescheduleAt, ",") {
		if at = strings.TrimSpace(at); at == "" {
			continue
		}
		if _, err := time.Parse("15:04", at); err != nil {
			return nil, fmt.Errorf("invalid DAILY_RESCHEDULE_AT %q: times must be HH:MM", at)
		}
	}

	return cfg, nil
}

// CalendarEnabled reports whether Google Calendar credentials are configured
func (c *Config) CalendarEnabled() bool {
	return c.GoogleCredentialsFile != ""
}

// AIEnabled reports whether an AI provider key is configured
func (c *Config) AIEnabled() bool {
	return c.OpenAIKey != ""
}

type envReader func(string) string

func (e envReader) get(key, defaultValue string) string {
	if value := e(key); value != "" {
		return value
	}
	return defaultValue
}

func (e envReader) getBool(key string, defaultValue bool) bool {
	if value := e(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func (e envReader) getInt(key string, defaultValue int) int {
	if value := e(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (e envReader) getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := e(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
