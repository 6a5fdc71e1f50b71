// Package profile manages the single user profile used as AI context.
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/napoleon/internal/database"
	"github.com/benvon/napoleon/internal/models"
	"github.com/benvon/napoleon/internal/validation"
)

// Service reads and writes the profile document
type Service struct {
	store database.ProfileStore
	now   func() time.Time
}

func NewService(store database.ProfileStore) *Service {
	return &Service{store: store, now: time.Now}
}

// Get returns the stored profile, or an empty profile when none has been saved
func (s *Service) Get(ctx context.Context) (*models.Profile, error) {
	p, err := s.store.GetProfile(ctx)
	if errors.Is(err, models.ErrNotFound) {
		return &models.Profile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return p, nil
}

// Update replaces the profile with the sanitised fields of p
func (s *Service) Update(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	out := &models.Profile{
		Username:        validation.SanitizeText(p.Username),
		About:           validation.SanitizeText(p.About),
		ShortTermGoals:  validation.SanitizeText(p.ShortTermGoals),
		MediumTermGoals: validation.SanitizeText(p.MediumTermGoals),
		LongTermGoals:   validation.SanitizeText(p.LongTermGoals),
		UpdatedAt:       s.now().UTC(),
	}
	if err := s.store.UpsertProfile(ctx, out); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return out, nil
}
