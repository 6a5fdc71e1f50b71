package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMetrics_CompletedCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		metrics Metrics
		want    int
	}{
		{"none", Metrics{}, 0},
		{"one", Metrics{Water: true}, 1},
		{"three", Metrics{Workout: true, Sleep: true, Accountability: true}, 3},
		{"all", Metrics{Workout: true, Water: true, Supplements: true, Sleep: true, Accountability: true}, MetricCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.metrics.CompletedCount(); got != tt.want {
				t.Errorf("CompletedCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMetrics_GetUnknown(t *testing.T) {
	t.Parallel()
	m := Metrics{Workout: true, Water: true, Supplements: true, Sleep: true, Accountability: true}
	if m.Get(MetricName("meditation")) {
		t.Error("Expected unknown metric to read as false")
	}
}

func TestDailyMetricsRecord_JSONFieldNames(t *testing.T) {
	t.Parallel()

	rec := DailyMetricsRecord{
		Date:      "2025-01-06",
		Metrics:   Metrics{Water: true},
		UpdatedAt: time.Date(2025, 1, 6, 20, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"date", "metrics", "updatedAt"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("missing %q in %s", key, data)
		}
	}
	if _, ok := fields["updated_at"]; ok {
		t.Errorf("unexpected snake_case updated_at in %s", data)
	}
}
