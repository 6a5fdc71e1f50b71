package database

import (
	"context"

	"github.com/benvon/napoleon/internal/models"
)

// TaskStore owns the active task set and the completion log.
// Implementations assign ids on create and return models.ErrNotFound for absent ids.
type TaskStore interface {
	CreateTask(ctx context.Context, task *models.Task) error
	ListTasks(ctx context.Context) ([]*models.Task, error)
	GetTask(ctx context.Context, id string) (*models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id string) error
	// CompleteTask removes the task from the active set and appends the completion
	// record in one step. record.Task is filled with the removed task.
	CompleteTask(ctx context.Context, record *models.CompletionRecord) error
}

// MetricsStore owns daily metrics records keyed by calendar date
type MetricsStore interface {
	// SaveMetrics replaces the record for record.Date wholesale, creating it if absent
	SaveMetrics(ctx context.Context, record *models.DailyMetricsRecord) error
	GetMetrics(ctx context.Context, date string) (*models.DailyMetricsRecord, error)
	// RangeMetrics returns records with start <= date <= end ordered by date
	RangeMetrics(ctx context.Context, start, end string) ([]*models.DailyMetricsRecord, error)
}

// ConversationStore persists guidance conversations
type ConversationStore interface {
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	SaveConversation(ctx context.Context, conv *models.Conversation) error
	// ListConversations returns conversations newest first by LastUpdated
	ListConversations(ctx context.Context) ([]*models.Conversation, error)
}

// ProfileStore persists the single user profile
type ProfileStore interface {
	GetProfile(ctx context.Context) (*models.Profile, error)
	UpsertProfile(ctx context.Context, profile *models.Profile) error
}

// Ensure concrete types implement the interfaces
var (
	_ TaskStore         = (*TaskRepository)(nil)
	_ MetricsStore      = (*MetricsRepository)(nil)
	_ ConversationStore = (*ConversationRepository)(nil)
	_ ProfileStore      = (*ProfileRepository)(nil)
)
