package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/benvon/napoleon/internal/models"
)

// MetricsRepository handles daily metrics records
type MetricsRepository struct {
	db *DB
}

// NewMetricsRepository creates a new metrics repository
func NewMetricsRepository(db *DB) *MetricsRepository {
	return &MetricsRepository{db: db}
}

// SaveMetrics upserts all five flags for a date
func (r *MetricsRepository) SaveMetrics(ctx context.Context, record *models.DailyMetricsRecord) error {
	m := record.Metrics
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO daily_metrics (date, workout, water, supplements, sleep, accountability, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (date) DO UPDATE SET
			workout = EXCLUDED.workout,
			water = EXCLUDED.water,
			supplements = EXCLUDED.supplements,
			sleep = EXCLUDED.sleep,
			accountability = EXCLUDED.accountability,
			updated_at = EXCLUDED.updated_at
	`, record.Date, m.Workout, m.Water, m.Supplements, m.Sleep, m.Accountability, record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save metrics: %w", err)
	}
	return nil
}

func scanMetrics(row rowScanner) (*models.DailyMetricsRecord, error) {
	rec := &models.DailyMetricsRecord{}
	err := row.Scan(
		&rec.Date,
		&rec.Metrics.Workout,
		&rec.Metrics.Water,
		&rec.Metrics.Supplements,
		&rec.Metrics.Sleep,
		&rec.Metrics.Accountability,
		&rec.UpdatedAt,
	)
	return rec, err
}

// GetMetrics retrieves the record for a date
func (r *MetricsRepository) GetMetrics(ctx context.Context, date string) (*models.DailyMetricsRecord, error) {
	rec, err := scanMetrics(r.db.QueryRowContext(ctx, `
		SELECT date, workout, water, supplements, sleep, accountability, updated_at
		FROM daily_metrics WHERE date = $1
	`, date))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("metrics for %s: %w", date, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics: %w", err)
	}
	return rec, nil
}

// RangeMetrics returns records between start and end inclusive, ordered by date
func (r *MetricsRepository) RangeMetrics(ctx context.Context, start, end string) ([]*models.DailyMetricsRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, workout, water, supplements, sleep, accountability, updated_at
		FROM daily_metrics
		WHERE date >= $1 AND date <= $2
		ORDER BY date
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	records := make([]*models.DailyMetricsRecord, 0)
	for rows.Next() {
		rec, err := scanMetrics(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan metrics: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating metrics: %w", err)
	}
	return records, nil
}
