package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benvon/napoleon/internal/database"
	"github.com/benvon/napoleon/internal/models"
)

// ConfigStore holds operator settings (rate limit and CORS) for deployments without Postgres
type ConfigStore struct {
	mu        sync.RWMutex
	ratelimit *models.RatelimitConfig
	cors      *models.CorsConfig
}

func NewConfigStore() *ConfigStore {
	return &ConfigStore{}
}

func (s *ConfigStore) GetRatelimitConfig(_ context.Context) (*models.RatelimitConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ratelimit == nil {
		return nil, nil
	}
	c := *s.ratelimit
	return &c, nil
}

func (s *ConfigStore) SetRatelimitConfig(_ context.Context, c *models.RatelimitConfig) error {
	rate, err := database.NormalizeRate(c.Rate)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	created := now
	if s.ratelimit != nil {
		created = s.ratelimit.CreatedAt
	}
	s.ratelimit = &models.RatelimitConfig{
		ConfigKey: database.DefaultConfigKey,
		Rate:      rate,
		CreatedAt: created,
		UpdatedAt: now,
	}
	return nil
}

func (s *ConfigStore) GetCorsConfig(_ context.Context) (*models.CorsConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cors == nil {
		return nil, nil
	}
	c := *s.cors
	return &c, nil
}

func (s *ConfigStore) SetCorsConfig(_ context.Context, c *models.CorsConfig) error {
	origins := strings.Join(database.AllowedOriginsSlice(c.AllowedOrigins), ",")
	if origins == "" {
		return fmt.Errorf("allowed_origins cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	created := now
	if s.cors != nil {
		created = s.cors.CreatedAt
	}
	s.cors = &models.CorsConfig{
		ConfigKey:        database.DefaultConfigKey,
		AllowedOrigins:   origins,
		AllowCredentials: c.AllowCredentials,
		MaxAge:           c.MaxAge,
		CreatedAt:        created,
		UpdatedAt:        now,
	}
	return nil
}
