package tracker

import (
	"errors"
	"fmt"
	"testing"

	"github.com/benvon/napoleon/internal/models"
)

// day builds a record whose first n metrics (in enumeration order) are set
func day(date string, n int) *models.DailyMetricsRecord {
	m := models.Metrics{}
	flags := []*bool{&m.Workout, &m.Water, &m.Supplements, &m.Sleep, &m.Accountability}
	for i := 0; i < n && i < len(flags); i++ {
		*flags[i] = true
	}
	return &models.DailyMetricsRecord{Date: date, Metrics: m}
}

func TestWindow(t *testing.T) {
	t.Parallel()
	records := []*models.DailyMetricsRecord{
		day("2025-01-08", 1),
		day("2025-01-05", 5),
		day("2025-01-06", 2),
		nil,
	}
	got := Window(records, "2025-01-06")
	if len(got) != 2 || got[0].Date != "2025-01-06" || got[1].Date != "2025-01-08" {
		t.Errorf("Window() = %v", got)
	}
}

func TestDailyCompletionPercent(t *testing.T) {
	t.Parallel()
	for n := 0; n <= 5; n++ {
		r := day("2025-01-06", n)
		if got, want := DailyCompletionPercent(r), float64(n*20); got != want {
			t.Errorf("DailyCompletionPercent(%d set) = %v, want %v", n, got, want)
		}
		if CompletedCount(r) != n {
			t.Errorf("CompletedCount = %d, want %d", CompletedCount(r), n)
		}
	}
}

func TestWeeklyAverage(t *testing.T) {
	t.Parallel()

	if _, err := WeeklyAverage(nil); !errors.Is(err, ErrEmptyWindow) {
		t.Errorf("Expected ErrEmptyWindow, got %v", err)
	}

	// 60, 40, 40 -> 46.67 -> 47
	window := []*models.DailyMetricsRecord{day("2025-01-06", 3), day("2025-01-07", 2), day("2025-01-08", 2)}
	got, err := WeeklyAverage(window)
	if err != nil {
		t.Fatalf("WeeklyAverage: %v", err)
	}
	if got != 47 {
		t.Errorf("WeeklyAverage() = %d, want 47", got)
	}
}

func TestMetricCompletionRate_Water(t *testing.T) {
	t.Parallel()

	window := make([]*models.DailyMetricsRecord, 0, 10)
	for i := 0; i < 10; i++ {
		r := &models.DailyMetricsRecord{Date: fmt.Sprintf("2025-01-%02d", 6+i)}
		r.Metrics.Water = i < 7
		window = append(window, r)
	}

	got, err := MetricCompletionRate(window, models.MetricWater)
	if err != nil {
		t.Fatalf("MetricCompletionRate: %v", err)
	}
	if got != 70 {
		t.Errorf("MetricCompletionRate(water) = %v, want 70", got)
	}

	if _, err := MetricCompletionRate(nil, models.MetricWater); !errors.Is(err, ErrEmptyWindow) {
		t.Errorf("Expected ErrEmptyWindow, got %v", err)
	}
}

func TestCurrentStreak(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		window []*models.DailyMetricsRecord
		want   int
	}{
		{
			name: "three qualifying days then a miss",
			window: []*models.DailyMetricsRecord{
				day("2025-01-06", 3),
				day("2025-01-07", 4),
				day("2025-01-08", 5),
				day("2025-01-09", 1),
				day("2025-01-10", 5),
			},
			want: 3,
		},
		{
			name:   "empty",
			window: nil,
			want:   0,
		},
		{
			name: "first day below threshold",
			window: []*models.DailyMetricsRecord{
				day("2025-01-06", 2),
				day("2025-01-07", 5),
			},
			want: 0,
		},
		{
			name: "calendar gap ends the streak",
			window: []*models.DailyMetricsRecord{
				day("2025-01-06", 3),
				day("2025-01-07", 3),
				day("2025-01-09", 3),
			},
			want: 2,
		},
		{
			name: "every day qualifies",
			window: []*models.DailyMetricsRecord{
				day("2025-01-06", 3),
				day("2025-01-07", 3),
			},
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CurrentStreak(tt.window); got != tt.want {
				t.Errorf("CurrentStreak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMostConsistentMetric(t *testing.T) {
	t.Parallel()

	if _, err := MostConsistentMetric(nil); !errors.Is(err, ErrEmptyWindow) {
		t.Errorf("Expected ErrEmptyWindow, got %v", err)
	}

	sleepy := []*models.DailyMetricsRecord{
		{Date: "2025-01-06", Metrics: models.Metrics{Sleep: true, Water: true}},
		{Date: "2025-01-07", Metrics: models.Metrics{Sleep: true}},
	}
	if got, _ := MostConsistentMetric(sleepy); got != models.MetricSleep {
		t.Errorf("MostConsistentMetric() = %s, want sleep", got)
	}

	tied := []*models.DailyMetricsRecord{
		{Date: "2025-01-06", Metrics: models.Metrics{Accountability: true, Supplements: true}},
	}
	if got, _ := MostConsistentMetric(tied); got != models.MetricSupplements {
		t.Errorf("Expected tie to go to supplements, got %s", got)
	}

	none := []*models.DailyMetricsRecord{{Date: "2025-01-06"}}
	if got, _ := MostConsistentMetric(none); got != models.MetricWorkout {
		t.Errorf("Expected all-zero tie to go to workout, got %s", got)
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	records := []*models.DailyMetricsRecord{
		day("2025-01-05", 5), // before the anchor
		day("2025-01-06", 5),
		day("2025-01-07", 3),
		day("2025-01-08", 1),
	}
	s := Summarize(records, "2025-01-06")

	if s.Days != 3 {
		t.Errorf("Days = %d, want 3", s.Days)
	}
	if s.CurrentStreak != 2 {
		t.Errorf("CurrentStreak = %d, want 2", s.CurrentStreak)
	}
	// 100, 60, 20 -> 60
	if s.WeeklyAverage == nil || *s.WeeklyAverage != 60 {
		t.Errorf("WeeklyAverage = %v, want 60", s.WeeklyAverage)
	}
	if s.MostConsistent != models.MetricWorkout {
		t.Errorf("MostConsistent = %s, want workout", s.MostConsistent)
	}
	if s.MetricRates[models.MetricAccountability] != 100.0/3 {
		t.Errorf("accountability rate = %v", s.MetricRates[models.MetricAccountability])
	}
	if len(s.Daily) != 3 || s.Daily[2].CompletionPercent != 20 {
		t.Errorf("Daily = %+v", s.Daily)
	}
}

func TestSummarize_EmptyWindow(t *testing.T) {
	t.Parallel()
	s := Summarize(nil, "2025-01-06")
	if s.WeeklyAverage != nil || s.MostConsistent != "" || s.CurrentStreak != 0 {
		t.Errorf("Expected empty summary, got %+v", s)
	}
	if s.Daily == nil || s.MetricRates == nil {
		t.Error("Expected non-nil collections for JSON encoding")
	}
}
