package models

import "time"

// MetricName identifies one of the five daily habit flags
type MetricName string

const (
	MetricWorkout        MetricName = "workout"
	MetricWater          MetricName = "water"
	MetricSupplements    MetricName = "supplements"
	MetricSleep          MetricName = "sleep"
	MetricAccountability MetricName = "accountability"
)

// MetricCount is the number of tracked habit flags per day
const MetricCount = 5

// AllMetrics lists the metrics in their fixed enumeration order.
// Tie-breaks in analytics follow this order.
var AllMetrics = []MetricName{
	MetricWorkout,
	MetricWater,
	MetricSupplements,
	MetricSleep,
	MetricAccountability,
}

// Metrics is one day's set of habit flags
type Metrics struct {
	Workout        bool `json:"workout" firestore:"workout"`
	Water          bool `json:"water" firestore:"water"`
	Supplements    bool `json:"supplements" firestore:"supplements"`
	Sleep          bool `json:"sleep" firestore:"sleep"`
	Accountability bool `json:"accountability" firestore:"accountability"`
}

// Get returns the value of the named metric
func (m Metrics) Get(name MetricName) bool {
	switch name {
	case MetricWorkout:
		return m.Workout
	case MetricWater:
		return m.Water
	case MetricSupplements:
		return m.Supplements
	case MetricSleep:
		return m.Sleep
	case MetricAccountability:
		return m.Accountability
	default:
		return false
	}
}

// CompletedCount returns how many of the five flags are set
func (m Metrics) CompletedCount() int {
	n := 0
	for _, name := range AllMetrics {
		if m.Get(name) {
			n++
		}
	}
	return n
}

// DailyMetricsRecord is the stored snapshot for a single date. There is at most one per date.
type DailyMetricsRecord struct {
	Date      string    `json:"date"`
	Metrics   Metrics   `json:"metrics"`
	UpdatedAt time.Time `json:"updatedAt"`
}
