package ai

import (
	"context"
	"errors"

	"github.com/benvon/napoleon/internal/models"
)

// ErrNotConfigured is returned by the disabled provider for operations that need a model
var ErrNotConfigured = errors.New("AI provider is not configured")

// Provider is the set of model-backed operations the planner uses
type Provider interface {
	// Chat answers the last user message in history and reports whether the reply asks the user a question
	Chat(ctx context.Context, history []ChatMessage, profile *models.Profile) (*ChatResponse, error)

	// DailyMessage writes a short plan-of-the-day note for the given tasks
	DailyMessage(ctx context.Context, tasks []*models.Task, profile *models.Profile) (string, error)

	// MotivationalMessage writes encouragement based on habit progress
	MotivationalMessage(ctx context.Context, progress Progress, profile *models.Profile) (string, error)

	// RefineOrder returns task IDs in the order the model recommends working them
	RefineOrder(ctx context.Context, tasks []*models.Task, profile *models.Profile) ([]string, error)
}

// Chat roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a message in a chat conversation
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatResponse represents a response from the AI chat
type ChatResponse struct {
	Content    string `json:"content"`
	IsQuestion bool   `json:"isQuestion"`
}

// Progress is the habit tracker snapshot passed to MotivationalMessage
type Progress struct {
	CurrentStreak  int
	WeeklyAverage  *int
	MostConsistent string
	Days           int
}

// HistoryFromConversation converts stored messages to chat history
func HistoryFromConversation(conv *models.Conversation) []ChatMessage {
	if conv == nil {
		return nil
	}
	out := make([]ChatMessage, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		role := RoleUser
		if m.Author == models.AuthorAssistant {
			role = RoleAssistant
		}
		out = append(out, ChatMessage{Role: role, Content: m.Content})
	}
	return out
}
