// Package bootstrap connects the external dependencies shared by the server and
// worker binaries. Optional dependencies fall back to in-process or disabled
// implementations when they are not configured.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/napoleon/internal/config"
	"github.com/benvon/napoleon/internal/gate"
	"github.com/benvon/napoleon/internal/queue"
	"github.com/benvon/napoleon/internal/services/ai"
	"github.com/benvon/napoleon/internal/services/calendar"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// GatePrefix namespaces in-flight markers in Redis
const GatePrefix = "napoleon:gate:"

// MemoryQueueCapacity bounds the in-process job queue of the memory driver
const MemoryQueueCapacity = 64

// OpenRedis connects to REDIS_URL. It returns nil when Redis is not configured.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// NewGate shares markers through Redis when available, otherwise keeps them in process.
// A local gate only guards a single process, so multi-process deployments need Redis.
func NewGate(client *redis.Client) gate.Gate {
	if client == nil {
		return gate.NewLocalGate()
	}
	return gate.NewRedisGate(client, GatePrefix)
}

// RetryPolicy controls the RabbitMQ connection retries
type RetryPolicy struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryPolicy rides out RabbitMQ starting after the application containers
var DefaultRetryPolicy = RetryPolicy{Attempts: 10, InitialDelay: 2 * time.Second, MaxDelay: 30 * time.Second}

// Delay returns the backoff before retry attempt (0-based)
func (p RetryPolicy) Delay(attempt int) time.Duration {
	delay := p.InitialDelay
	for i := 0; i < attempt && delay < p.MaxDelay; i++ {
		delay *= 2
	}
	return min(delay, p.MaxDelay)
}

// OpenQueue connects to RabbitMQ with exponential backoff. With no RABBITMQ_URL
// (only allowed for the memory store) it returns an in-process queue.
func OpenQueue(ctx context.Context, cfg *config.Config, policy RetryPolicy, log *zap.Logger) (queue.JobQueue, error) {
	if cfg.RabbitMQURL == "" {
		log.Warn("using_memory_queue", zap.String("note", "jobs are processed in-process and lost on restart"))
		return queue.NewMemoryQueue(MemoryQueueCapacity), nil
	}

	var lastErr error
	for attempt := 0; attempt < policy.Attempts; attempt++ {
		q, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL, log)
		if err == nil {
			log.Info("connected_to_rabbitmq", zap.Int("prefetch", cfg.RabbitMQPrefetch))
			return q, nil
		}
		lastErr = err

		delay := policy.Delay(attempt)
		log.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", policy.Attempts),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("failed to connect to rabbitmq after %d attempts: %w", policy.Attempts, lastErr)
}

// NewAssistant returns the OpenAI provider when a key is configured, otherwise
// the disabled provider with static fallbacks
func NewAssistant(cfg *config.Config, log *zap.Logger, debugMode bool) ai.Provider {
	if !cfg.AIEnabled() {
		log.Info("ai_disabled", zap.String("reason", "OPENAI_API_KEY not set"))
		return ai.NewDisabledProvider()
	}
	log.Info("ai_enabled", zap.String("model", cfg.AIModel))
	return ai.NewOpenAIProviderWithLogger(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, log, debugMode)
}

// NewCalendar returns the Google Calendar client when credentials are configured.
// Failing to load credentials disables the calendar instead of stopping startup.
func NewCalendar(ctx context.Context, cfg *config.Config, log *zap.Logger) calendar.Client {
	if !cfg.CalendarEnabled() {
		log.Info("calendar_disabled", zap.String("reason", "GOOGLE_CREDENTIALS_FILE not set"))
		return calendar.Disabled{}
	}
	client, err := calendar.NewGoogleClient(ctx, cfg.GoogleCredentialsFile, cfg.GoogleCalendarID, cfg.Location)
	if err != nil {
		log.Warn("failed_to_create_calendar_client_calendar_disabled", zap.Error(err))
		return calendar.Disabled{}
	}
	log.Info("calendar_enabled", zap.String("calendar_id", cfg.GoogleCalendarID))
	return client
}
