package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/benvon/napoleon/internal/models"
)

type ProfileStore struct {
	mu      sync.RWMutex
	profile *models.Profile
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{}
}

func (s *ProfileStore) GetProfile(_ context.Context) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.profile == nil {
		return nil, fmt.Errorf("profile: %w", models.ErrNotFound)
	}
	p := *s.profile
	return &p, nil
}

func (s *ProfileStore) UpsertProfile(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := *profile
	s.profile = &p
	return nil
}
