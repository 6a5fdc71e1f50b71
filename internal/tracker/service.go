package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/napoleon/internal/database"
	"github.com/benvon/napoleon/internal/models"
	"github.com/benvon/napoleon/internal/validation"
	"go.uber.org/zap"
)

// Service saves daily metrics and reports analytics over the configured window
type Service struct {
	store  database.MetricsStore
	anchor string
	log    *zap.Logger
	now    func() time.Time
}

// NewService creates a tracker service whose analysis window starts at anchor (YYYY-MM-DD)
func NewService(store database.MetricsStore, anchor string, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, anchor: anchor, log: log, now: time.Now}
}

// Anchor returns the first date of the analysis window
func (s *Service) Anchor() string {
	return s.anchor
}

// SaveMetrics replaces the record for date with metrics and returns the stored record
func (s *Service) SaveMetrics(ctx context.Context, date string, metrics models.Metrics) (*models.DailyMetricsRecord, error) {
	if err := validation.ValidateDate(date); err != nil {
		return nil, err
	}
	record := &models.DailyMetricsRecord{
		Date:      date,
		Metrics:   metrics,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.store.SaveMetrics(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save metrics: %w", err)
	}
	s.log.Debug("metrics_saved",
		zap.String("date", date),
		zap.Int("completed", metrics.CompletedCount()),
	)
	return record, nil
}

// GetRange returns records between start and end inclusive ordered by date
func (s *Service) GetRange(ctx context.Context, start, end string) ([]*models.DailyMetricsRecord, error) {
	if err := validation.ValidateDate(start); err != nil {
		return nil, err
	}
	if err := validation.ValidateDate(end); err != nil {
		return nil, err
	}
	if end < start {
		return nil, fmt.Errorf("%w: end date %s is before start date %s", models.ErrInvalidInput, end, start)
	}
	records, err := s.store.RangeMetrics(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load metrics range: %w", err)
	}
	return records, nil
}

// Summary computes analytics from the anchor date through end inclusive
func (s *Service) Summary(ctx context.Context, end string) (Summary, error) {
	if end == "" {
		end = s.now().UTC().Format(models.DateLayout)
	}
	if err := validation.ValidateDate(end); err != nil {
		return Summary{}, err
	}
	if end < s.anchor {
		return Summarize(nil, s.anchor), nil
	}
	records, err := s.store.RangeMetrics(ctx, s.anchor, end)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load metrics for summary: %w", err)
	}
	return Summarize(records, s.anchor), nil
}
