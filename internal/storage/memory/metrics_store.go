package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/benvon/napoleon/internal/models"
)

type MetricsStore struct {
	mu      sync.RWMutex
	records map[string]models.DailyMetricsRecord
}

func NewMetricsStore() *MetricsStore {
	return &MetricsStore{
		records: make(map[string]models.DailyMetricsRecord),
	}
}

func (s *MetricsStore) SaveMetrics(_ context.Context, record *models.DailyMetricsRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.Date] = *record
	return nil
}

func (s *MetricsStore) GetMetrics(_ context.Context, date string) (*models.DailyMetricsRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[date]
	if !ok {
		return nil, fmt.Errorf("metrics for %s: %w", date, models.ErrNotFound)
	}
	return &rec, nil
}

func (s *MetricsStore) RangeMetrics(_ context.Context, start, end string) ([]*models.DailyMetricsRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.DailyMetricsRecord, 0)
	for date, rec := range s.records {
		if date < start || date > end {
			continue
		}
		rec := rec
		out = append(out, &rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}
