package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Priority represents how urgent a task is
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Goal is a life area a task contributes to
type Goal string

const (
	GoalCareer   Goal = "Career"
	GoalHealth   Goal = "Health"
	GoalLearning Goal = "Learning"
	GoalHobbies  Goal = "Hobbies"
)

// TaskType categorises the kind of effort a task needs
type TaskType string

const (
	TaskTypeDeepWork TaskType = "Deep Work"
	TaskTypeAdmin    TaskType = "Admin"
	TaskTypeMeeting  TaskType = "Meeting"
	TaskTypePhysical TaskType = "Physical"
)

// DateLayout is the calendar date format used on the wire and as store keys
const DateLayout = "2006-01-02"

// Task represents an active task. Tasks leave the active set when they are
// deleted or completed.
type Task struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	DueDate       string    `json:"dueDate"`
	Description   string    `json:"description"`
	EstimatedTime float64   `json:"estimatedTime"`
	Priority      Priority  `json:"priority"`
	Goals         []Goal    `json:"goals"`
	TaskType      TaskType  `json:"taskType"`
	Notes         string    `json:"notes,omitempty"`
	TimeSlot      string    `json:"timeSlot,omitempty"`      // Set by the scheduler (RFC3339 start of the slot)
	ScheduledDate string    `json:"scheduledDate,omitempty"` // YYYY-MM-DD the slot belongs to
	GCalEventID   string    `json:"gcalEventId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// TaskDraft is the unvalidated payload submitted to create a task
type TaskDraft struct {
	Name          string        `json:"name"`
	DueDate       string        `json:"dueDate"`
	Description   string        `json:"description"`
	EstimatedTime NumericString `json:"estimatedTime"`
	Priority      string        `json:"priority"`
	Goals         []string      `json:"goals"`
	TaskType      string        `json:"taskType"`
	Notes         string        `json:"notes,omitempty"`
}

// NumericString accepts either a JSON number or a JSON string and keeps the raw text.
// Form clients submit estimated time as a string, API clients as a number.
type NumericString string

// UnmarshalJSON implements json.Unmarshaler
func (n *NumericString) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*n = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumericString(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("estimatedTime must be a number or numeric string: %w", err)
	}
	*n = NumericString(num.String())
	return nil
}

// Float parses the value as a float64
func (n NumericString) Float() (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
}

// ParseDate parses a calendar date (YYYY-MM-DD) or an RFC3339 timestamp
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date: %q", value)
}
