package ai

import (
	"context"
	"fmt"

	"github.com/benvon/napoleon/internal/models"
)

// Fallback texts used when no model is configured
const (
	FallbackDailyMessage        = "Focus on your highest priority task first, then work down the list."
	FallbackMotivationalMessage = "Every checked habit counts. Keep showing up today."
)

// DisabledProvider serves deployments without an API key. Messages fall back
// to static text and ordering is left unchanged. Chat fails because there is
// no sensible static answer.
type DisabledProvider struct{}

func NewDisabledProvider() *DisabledProvider {
	return &DisabledProvider{}
}

func (DisabledProvider) Chat(_ context.Context, _ []ChatMessage, _ *models.Profile) (*ChatResponse, error) {
	return nil, &models.NetworkError{Op: "guidance chat", Err: ErrNotConfigured}
}

func (DisabledProvider) DailyMessage(_ context.Context, tasks []*models.Task, _ *models.Profile) (string, error) {
	if len(tasks) == 0 {
		return "Nothing is scheduled today. Add a task or take the time to plan ahead.", nil
	}
	return fmt.Sprintf("You have %d task(s) today. %s", len(tasks), FallbackDailyMessage), nil
}

func (DisabledProvider) MotivationalMessage(_ context.Context, progress Progress, _ *models.Profile) (string, error) {
	if progress.CurrentStreak > 0 {
		return fmt.Sprintf("You are on a %d day streak. %s", progress.CurrentStreak, FallbackMotivationalMessage), nil
	}
	return FallbackMotivationalMessage, nil
}

func (DisabledProvider) RefineOrder(_ context.Context, tasks []*models.Task, _ *models.Profile) ([]string, error) {
	return taskIDs(tasks), nil
}

var (
	_ Provider = (*DisabledProvider)(nil)
	_ Provider = (*OpenAIProvider)(nil)
)
