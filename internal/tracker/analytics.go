// Package tracker computes habit analytics over daily metrics records.
package tracker

import (
	"errors"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/benvon/napoleon/internal/models"
)

// StreakThreshold is the minimum number of completed metrics for a day to extend a streak
const StreakThreshold = 3

// ErrEmptyWindow is returned by averages over a window with no records
var ErrEmptyWindow = errors.New("no records in analysis window")

// Window keeps records dated on or after anchor, ordered by date
func Window(records []*models.DailyMetricsRecord, anchor string) []*models.DailyMetricsRecord {
	out := make([]*models.DailyMetricsRecord, 0, len(records))
	for _, r := range records {
		if r != nil && r.Date >= anchor {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b *models.DailyMetricsRecord) int {
		return strings.Compare(a.Date, b.Date)
	})
	return out
}

// CompletedCount is the number of metrics set on the record
func CompletedCount(r *models.DailyMetricsRecord) int {
	return r.Metrics.CompletedCount()
}

// DailyCompletionPercent is the share of the five metrics completed, 0 to 100
func DailyCompletionPercent(r *models.DailyMetricsRecord) float64 {
	return float64(CompletedCount(r)*100) / models.MetricCount
}

// WeeklyAverage is the rounded mean daily completion percent across the window
func WeeklyAverage(window []*models.DailyMetricsRecord) (int, error) {
	if len(window) == 0 {
		return 0, ErrEmptyWindow
	}
	var sum float64
	for _, r := range window {
		sum += DailyCompletionPercent(r)
	}
	return int(math.Round(sum / float64(len(window)))), nil
}

// MetricCompletionRate is the percent of records in the window with metric set
func MetricCompletionRate(window []*models.DailyMetricsRecord, metric models.MetricName) (float64, error) {
	if len(window) == 0 {
		return 0, ErrEmptyWindow
	}
	n := 0
	for _, r := range window {
		if r.Metrics.Get(metric) {
			n++
		}
	}
	return float64(n*100) / float64(len(window)), nil
}

// CurrentStreak counts qualifying days from the start of the window. Counting
// stops at the first day below StreakThreshold or at a missing calendar day.
// The streak is anchored at the window start, not at today.
func CurrentStreak(window []*models.DailyMetricsRecord) int {
	streak := 0
	var prev time.Time
	for i, r := range window {
		day, err := time.Parse(models.DateLayout, r.Date)
		if err != nil {
			break
		}
		if i > 0 && !day.Equal(prev.AddDate(0, 0, 1)) {
			break
		}
		if CompletedCount(r) < StreakThreshold {
			break
		}
		streak++
		prev = day
	}
	return streak
}

// MostConsistentMetric returns the metric with the highest completion rate.
// Ties go to the earliest metric in models.AllMetrics.
func MostConsistentMetric(window []*models.DailyMetricsRecord) (models.MetricName, error) {
	if len(window) == 0 {
		return "", ErrEmptyWindow
	}
	best := models.AllMetrics[0]
	bestRate := -1.0
	for _, m := range models.AllMetrics {
		rate, _ := MetricCompletionRate(window, m)
		if rate > bestRate {
			best, bestRate = m, rate
		}
	}
	return best, nil
}

// DailySummary is the per-day line of a Summary
type DailySummary struct {
	Date              string  `json:"date"`
	CompletedCount    int     `json:"completedCount"`
	CompletionPercent float64 `json:"completionPercent"`
}

// Summary aggregates every analytic for a window
type Summary struct {
	AnchorDate     string                        `json:"anchorDate"`
	Days           int                           `json:"days"`
	CurrentStreak  int                           `json:"currentStreak"`
	WeeklyAverage  *int                          `json:"weeklyAverage"`
	MetricRates    map[models.MetricName]float64 `json:"metricRates"`
	MostConsistent models.MetricName             `json:"mostConsistent,omitempty"`
	Daily          []DailySummary                `json:"daily"`
}

// Summarize windows the records at anchor and computes every analytic.
// Averages are left empty when the window has no records.
func Summarize(records []*models.DailyMetricsRecord, anchor string) Summary {
	window := Window(records, anchor)
	s := Summary{
		AnchorDate:    anchor,
		Days:          len(window),
		CurrentStreak: CurrentStreak(window),
		MetricRates:   make(map[models.MetricName]float64, models.MetricCount),
		Daily:         make([]DailySummary, 0, len(window)),
	}

	if avg, err := WeeklyAverage(window); err == nil {
		s.WeeklyAverage = &avg
	}
	for _, m := range models.AllMetrics {
		if rate, err := MetricCompletionRate(window, m); err == nil {
			s.MetricRates[m] = rate
		}
	}
	if m, err := MostConsistentMetric(window); err == nil {
		s.MostConsistent = m
	}
	for _, r := range window {
		s.Daily = append(s.Daily, DailySummary{
			Date:              r.Date,
			CompletedCount:    CompletedCount(r),
			CompletionPercent: DailyCompletionPercent(r),
		})
	}
	return s
}
