package ai

import (
	"context"

	"github.com/benvon/napoleon/internal/logger"
	"github.com/benvon/napoleon/internal/request"
)

// ExtractRequestID returns the HTTP request id echoed in LLM debug logs
func ExtractRequestID(ctx context.Context) string {
	return request.RequestID(ctx)
}

const (
	// MaxPreviewLength is the maximum length for preview strings in logs
	MaxPreviewLength = 200
	// RedactedValue is the value used to replace sensitive data
	RedactedValue = "[REDACTED]"
)

// SanitizeAPIKey keeps the first and last four characters of a key
func SanitizeAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 8 {
		return RedactedValue
	}
	return apiKey[:4] + RedactedValue + apiKey[len(apiKey)-4:]
}

// SanitizePrompt creates a safe preview of a prompt for logging.
// Even in fullLog mode the text is cleaned of control characters and capped.
func SanitizePrompt(prompt string, fullLog bool) string {
	return preview(prompt, fullLog)
}

// SanitizeResponse creates a safe preview of a model reply for logging
func SanitizeResponse(response string, fullLog bool) string {
	return preview(response, fullLog)
}

func preview(s string, fullLog bool) string {
	if s == "" {
		return ""
	}
	maxLen := MaxPreviewLength
	if fullLog {
		maxLen = logger.MaxDebugContentLength
	}
	return logger.SanitizeString(s, maxLen)
}
