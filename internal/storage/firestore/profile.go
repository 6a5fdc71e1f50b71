package firestore

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/napoleon/internal/models"
)

type profileDoc struct {
	Username        string    `firestore:"username"`
	About           string    `firestore:"about"`
	ShortTermGoals  string    `firestore:"short_term_goals"`
	MediumTermGoals string    `firestore:"medium_term_goals"`
	LongTermGoals   string    `firestore:"long_term_goals"`
	UpdatedAt       time.Time `firestore:"updated_at"`
}

func (s *Store) GetProfile(ctx context.Context) (*models.Profile, error) {
	snap, err := s.client.Collection(profileCollection).Doc(profileDocID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("profile: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("firestore GetProfile: %w", err)
	}

	var doc profileDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetProfile decode: %w", err)
	}
	return &models.Profile{
		ID:              profileDocID,
		Username:        doc.Username,
		About:           doc.About,
		ShortTermGoals:  doc.ShortTermGoals,
		MediumTermGoals: doc.MediumTermGoals,
		LongTermGoals:   doc.LongTermGoals,
		UpdatedAt:       doc.UpdatedAt,
	}, nil
}

func (s *Store) UpsertProfile(ctx context.Context, p *models.Profile) error {
	p.ID = profileDocID
	doc := profileDoc{
		Username:        p.Username,
		About:           p.About,
		ShortTermGoals:  p.ShortTermGoals,
		MediumTermGoals: p.MediumTermGoals,
		LongTermGoals:   p.LongTermGoals,
		UpdatedAt:       p.UpdatedAt,
	}
	if _, err := s.client.Collection(profileCollection).Doc(profileDocID).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore UpsertProfile: %w", err)
	}
	return nil
}
