package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/benvon/napoleon/internal/models"
)

// DefaultProfileID is the key of the single profile row
const DefaultProfileID = "default"

// ProfileRepository handles the user profile
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetProfile retrieves the profile, or models.ErrNotFound if none has been saved
func (r *ProfileRepository) GetProfile(ctx context.Context) (*models.Profile, error) {
	p := &models.Profile{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, about, short_term_goals, medium_term_goals, long_term_goals, updated_at
		FROM profile WHERE id = $1
	`, DefaultProfileID).Scan(
		&p.ID,
		&p.Username,
		&p.About,
		&p.ShortTermGoals,
		&p.MediumTermGoals,
		&p.LongTermGoals,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// UpsertProfile replaces the profile
func (r *ProfileRepository) UpsertProfile(ctx context.Context, p *models.Profile) error {
	p.ID = DefaultProfileID
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profile (id, username, about, short_term_goals, medium_term_goals, long_term_goals, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			about = EXCLUDED.about,
			short_term_goals = EXCLUDED.short_term_goals,
			medium_term_goals = EXCLUDED.medium_term_goals,
			long_term_goals = EXCLUDED.long_term_goals,
			updated_at = EXCLUDED.updated_at
	`, p.ID, p.Username, p.About, p.ShortTermGoals, p.MediumTermGoals, p.LongTermGoals, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}
