package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/benvon/napoleon/internal/models"
)

// ConversationRepository stores guidance conversations with their messages as JSONB
type ConversationRepository struct {
	db *DB
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func scanConversation(row rowScanner) (*models.Conversation, error) {
	conv := &models.Conversation{}
	var messagesJSON []byte
	if err := row.Scan(&conv.ID, &conv.Title, &messagesJSON, &conv.IsResolved, &conv.LastUpdated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(messagesJSON, &conv.Messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
	}
	return conv, nil
}

// GetConversation retrieves a conversation by id
func (r *ConversationRepository) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	conv, err := scanConversation(r.db.QueryRowContext(ctx, `
		SELECT id, title, messages, is_resolved, last_updated
		FROM conversations WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("conversation %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return conv, nil
}

// SaveConversation upserts the whole conversation
func (r *ConversationRepository) SaveConversation(ctx context.Context, conv *models.Conversation) error {
	messagesJSON, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO conversations (id, title, messages, is_resolved, last_updated)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			messages = EXCLUDED.messages,
			is_resolved = EXCLUDED.is_resolved,
			last_updated = EXCLUDED.last_updated
	`, conv.ID, conv.Title, messagesJSON, conv.IsResolved, conv.LastUpdated)
	if err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

// ListConversations returns all conversations, most recently updated first
func (r *ConversationRepository) ListConversations(ctx context.Context) ([]*models.Conversation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, messages, is_resolved, last_updated
		FROM conversations
		ORDER BY last_updated DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	convs := make([]*models.Conversation, 0)
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		convs = append(convs, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}
	return convs, nil
}
