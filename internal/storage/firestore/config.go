package firestore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/benvon/napoleon/internal/database"
	"github.com/benvon/napoleon/internal/models"
)

type ratelimitDoc struct {
	Rate      string    `firestore:"rate"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

type corsDoc struct {
	AllowedOrigins   string    `firestore:"allowed_origins"`
	AllowCredentials bool      `firestore:"allow_credentials"`
	MaxAge           int       `firestore:"max_age"`
	CreatedAt        time.Time `firestore:"created_at"`
	UpdatedAt        time.Time `firestore:"updated_at"`
}

func (s *Store) configDoc(id string) *firestore.DocumentRef {
	return s.client.Collection(configCollection).Doc(id)
}

func (s *Store) GetRatelimitConfig(ctx context.Context) (*models.RatelimitConfig, error) {
	snap, err := s.configDoc(ratelimitDocID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("firestore GetRatelimitConfig: %w", err)
	}
	var doc ratelimitDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetRatelimitConfig decode: %w", err)
	}
	return &models.RatelimitConfig{
		ConfigKey: database.DefaultConfigKey,
		Rate:      doc.Rate,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func (s *Store) SetRatelimitConfig(ctx context.Context, c *models.RatelimitConfig) error {
	rate, err := database.NormalizeRate(c.Rate)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = s.configDoc(ratelimitDocID).Set(ctx, map[string]interface{}{
		"rate":       rate,
		"updated_at": now,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("firestore SetRatelimitConfig: %w", err)
	}
	return s.stampCreated(ctx, ratelimitDocID, now)
}

func (s *Store) GetCorsConfig(ctx context.Context) (*models.CorsConfig, error) {
	snap, err := s.configDoc(corsDocID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("firestore GetCorsConfig: %w", err)
	}
	var doc corsDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetCorsConfig decode: %w", err)
	}
	return &models.CorsConfig{
		ConfigKey:        database.DefaultConfigKey,
		AllowedOrigins:   doc.AllowedOrigins,
		AllowCredentials: doc.AllowCredentials,
		MaxAge:           doc.MaxAge,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}, nil
}

func (s *Store) SetCorsConfig(ctx context.Context, c *models.CorsConfig) error {
	origins := strings.Join(database.AllowedOriginsSlice(c.AllowedOrigins), ",")
	if origins == "" {
		return fmt.Errorf("allowed_origins cannot be empty")
	}
	now := time.Now().UTC()
	_, err := s.configDoc(corsDocID).Set(ctx, map[string]interface{}{
		"allowed_origins":   origins,
		"allow_credentials": c.AllowCredentials,
		"max_age":           c.MaxAge,
		"updated_at":        now,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("firestore SetCorsConfig: %w", err)
	}
	return s.stampCreated(ctx, corsDocID, now)
}

// stampCreated sets created_at the first time a config document is written
func (s *Store) stampCreated(ctx context.Context, id string, now time.Time) error {
	ref := s.configDoc(id)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		if _, err := snap.DataAt("created_at"); err == nil {
			return nil
		}
		return tx.Update(ref, []firestore.Update{{Path: "created_at", Value: now}})
	})
}
