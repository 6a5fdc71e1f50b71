package models

import "time"

// Profile holds the single user's self-description used as AI context
type Profile struct {
	ID              string    `json:"id,omitempty"`
	Username        string    `json:"username"`
	About           string    `json:"about"`
	ShortTermGoals  string    `json:"short_term_goals"`
	MediumTermGoals string    `json:"medium_term_goals"`
	LongTermGoals   string    `json:"long_term_goals"`
	UpdatedAt       time.Time `json:"updated_at"`
}
