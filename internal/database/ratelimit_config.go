package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/napoleon/internal/models"
	"github.com/ulule/limiter/v3"
)

// DefaultConfigKey is the key of the single operator config row for each setting
const DefaultConfigKey = "default"

// RatelimitConfigStore holds the hot-reloadable request rate limit.
// Get returns nil, nil when no config has been saved.
type RatelimitConfigStore interface {
	GetRatelimitConfig(ctx context.Context) (*models.RatelimitConfig, error)
	SetRatelimitConfig(ctx context.Context, c *models.RatelimitConfig) error
}

// NormalizeRate trims a limiter rate such as "5-S" or "100-M" and checks that it parses
func NormalizeRate(raw string) (string, error) {
	rate := strings.TrimSpace(raw)
	if rate == "" {
		return "", fmt.Errorf("rate cannot be empty")
	}
	if _, err := limiter.NewRateFromFormatted(rate); err != nil {
		return "", fmt.Errorf("invalid rate %q: %w", rate, err)
	}
	return rate, nil
}

// RatelimitConfigRepository handles rate limit configuration in Postgres
type RatelimitConfigRepository struct {
	db *DB
}

// NewRatelimitConfigRepository creates a new ratelimit config repository
func NewRatelimitConfigRepository(db *DB) *RatelimitConfigRepository {
	return &RatelimitConfigRepository{db: db}
}

// GetRatelimitConfig retrieves the default rate limit config
func (r *RatelimitConfigRepository) GetRatelimitConfig(ctx context.Context) (*models.RatelimitConfig, error) {
	c := &models.RatelimitConfig{}
	err := r.db.QueryRowContext(ctx, `
		SELECT config_key, rate, created_at, updated_at
		FROM ratelimit_config WHERE config_key = $1
	`, DefaultConfigKey).Scan(&c.ConfigKey, &c.Rate, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ratelimit config: %w", err)
	}
	return c, nil
}

// SetRatelimitConfig upserts the default rate limit config
func (r *RatelimitConfigRepository) SetRatelimitConfig(ctx context.Context, c *models.RatelimitConfig) error {
	rate, err := NormalizeRate(c.Rate)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO ratelimit_config (config_key, rate, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (config_key) DO UPDATE SET
			rate = EXCLUDED.rate,
			updated_at = EXCLUDED.updated_at
	`, DefaultConfigKey, rate, now, now)
	if err != nil {
		return fmt.Errorf("set ratelimit config: %w", err)
	}
	return nil
}
