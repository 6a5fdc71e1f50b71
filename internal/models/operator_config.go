package models

import "time"

// Operator settings are single documents edited through the configure CLI and
// reloaded by the running server without a restart.

// RatelimitConfig is the request budget applied per client IP, in ulule
// limiter notation ("5-S", "100-M", "1000-H").
type RatelimitConfig struct {
	ConfigKey string    `json:"config_key"`
	Rate      string    `json:"rate"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CorsConfig lists the frontend origins allowed to call the API.
// AllowedOrigins is comma-separated; MaxAge is the preflight cache in seconds.
type CorsConfig struct {
	ConfigKey        string    `json:"config_key"`
	AllowedOrigins   string    `json:"allowed_origins"`
	AllowCredentials bool      `json:"allow_credentials"`
	MaxAge           int       `json:"max_age"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
