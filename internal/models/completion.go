package models

import "time"

// CompletionRecord is written when a task leaves the active set by being completed
type CompletionRecord struct {
	TaskID      string    `json:"taskId"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	CompletedAt time.Time `json:"completedAt"`
	Task        Task      `json:"task"`
}

// Duration returns the time actually worked
func (c CompletionRecord) Duration() time.Duration {
	return c.EndTime.Sub(c.StartTime)
}
