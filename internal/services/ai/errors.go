package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/napoleon/internal/models"
	"github.com/openai/openai-go/v3"
)

// APIError represents an error from the AI provider API
type APIError struct {
	Message     string
	Type        string
	Code        string
	StatusCode  int
	RetryAfter  *time.Duration
	IsPermanent bool // true for quota errors, false for rate limits
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests && !apiErr.IsPermanent
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

// IsQuotaError checks if an error is a quota exhaustion error
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsPermanent || apiErr.Code == "insufficient_quota"
	}

	errStr := err.Error()
	return strings.Contains(errStr, "insufficient_quota") ||
		strings.Contains(errStr, "billing")
}

// ExtractAPIError converts an SDK error into an APIError. It returns nil for
// errors that did not come back from the API (timeouts, DNS, cancellation).
func ExtractAPIError(err error) *APIError {
	var sdkErr *openai.Error
	if !errors.As(err, &sdkErr) {
		return nil
	}

	apiErr := &APIError{
		Message:    sdkErr.Message,
		Type:       sdkErr.Type,
		Code:       sdkErr.Code,
		StatusCode: sdkErr.StatusCode,
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(sdkErr.StatusCode)
	}

	if sdkErr.StatusCode == http.StatusTooManyRequests {
		retryAfter := 60 * time.Second
		if sdkErr.Code == "insufficient_quota" {
			apiErr.IsPermanent = true
			retryAfter = time.Hour
		}
		apiErr.RetryAfter = &retryAfter
	}
	return apiErr
}

// wrapCallError turns a failed completion into a NetworkError so handlers map it to 502
func wrapCallError(op string, err error) error {
	if apiErr := ExtractAPIError(err); apiErr != nil {
		return &models.NetworkError{Op: op, StatusCode: apiErr.StatusCode, Err: apiErr}
	}
	return &models.NetworkError{Op: op, Err: err}
}

// GetRetryDelay calculates the delay before retrying based on error type
func GetRetryDelay(err error, attempt int) time.Duration {
	// shift is kept in [0, 10] so the exponential below cannot overflow
	var shift uint
	switch {
	case attempt <= 0:
		shift = 0
	case attempt > 10:
		shift = 10
	default:
		shift = uint(attempt)
	}

	if IsQuotaError(err) {
		delay := time.Hour * time.Duration(1<<shift)
		if delay > 24*time.Hour {
			delay = 24 * time.Hour
		}
		return delay
	}

	if IsRateLimitError(err) {
		delay := 60 * time.Second * time.Duration(1<<shift)
		if delay > 15*time.Minute {
			delay = 15 * time.Minute
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.RetryAfter != nil && *apiErr.RetryAfter > delay {
			delay = *apiErr.RetryAfter
		}
		return delay
	}

	delay := 5 * time.Second * time.Duration(1<<shift)
	if delay > 5*time.Minute {
		delay = 5 * time.Minute
	}
	return delay
}
