package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/benvon/napoleon/internal/models"
)

type metricsDoc struct {
	Date      string         `firestore:"date"`
	Metrics   models.Metrics `firestore:"metrics"`
	UpdatedAt time.Time      `firestore:"updated_at"`
}

func (s *Store) metricsCol() *firestore.CollectionRef {
	return s.client.Collection(metricsCollection)
}

// SaveMetrics overwrites the document keyed by date without merging
func (s *Store) SaveMetrics(ctx context.Context, record *models.DailyMetricsRecord) error {
	doc := metricsDoc{Date: record.Date, Metrics: record.Metrics, UpdatedAt: record.UpdatedAt}
	if _, err := s.metricsCol().Doc(record.Date).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore SaveMetrics: %w", err)
	}
	return nil
}

func (s *Store) GetMetrics(ctx context.Context, date string) (*models.DailyMetricsRecord, error) {
	snap, err := s.metricsCol().Doc(date).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("metrics for %s: %w", date, models.ErrNotFound)
		}
		return nil, fmt.Errorf("firestore GetMetrics: %w", err)
	}

	var doc metricsDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetMetrics decode: %w", err)
	}
	return &models.DailyMetricsRecord{Date: date, Metrics: doc.Metrics, UpdatedAt: doc.UpdatedAt}, nil
}

func (s *Store) RangeMetrics(ctx context.Context, start, end string) ([]*models.DailyMetricsRecord, error) {
	iter := s.metricsCol().
		Where("date", ">=", start).
		Where("date", "<=", end).
		OrderBy("date", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	out := make([]*models.DailyMetricsRecord, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore RangeMetrics: %w", err)
		}

		var doc metricsDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode metricsDoc: %w", err)
		}
		out = append(out, &models.DailyMetricsRecord{Date: snap.Ref.ID, Metrics: doc.Metrics, UpdatedAt: doc.UpdatedAt})
	}
	return out, nil
}
