// Package guidance runs coaching conversations with the AI assistant.
package guidance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/napoleon/internal/database"
	"github.com/benvon/napoleon/internal/models"
	"github.com/benvon/napoleon/internal/services/ai"
	"github.com/benvon/napoleon/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxMessageLength caps a single user message in runes
const MaxMessageLength = 4000

// ProfileLoader supplies optional context for the assistant
type ProfileLoader interface {
	Get(ctx context.Context) (*models.Profile, error)
}

// Reply is the assistant's answer to one user message
type Reply struct {
	Content        string `json:"content"`
	IsQuestion     bool   `json:"isQuestion"`
	ConversationID string `json:"conversationId"`
}

// Service appends exchanges to stored conversations
type Service struct {
	store     database.ConversationStore
	assistant ai.Provider
	profiles  ProfileLoader
	log       *zap.Logger
	now       func() time.Time
	newID     func() string
}

func NewService(store database.ConversationStore, assistant ai.Provider, profiles ProfileLoader, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:     store,
		assistant: assistant,
		profiles:  profiles,
		log:       log,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// SendMessage asks the assistant to answer text within the conversation
// conversationID, starting a new conversation when the ID is empty. When the
// assistant fails nothing is appended or saved.
func (s *Service) SendMessage(ctx context.Context, conversationID, text string) (*Reply, error) {
	text = validation.SanitizeText(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message is required", models.ErrInvalidInput)
	}
	if len([]rune(text)) > MaxMessageLength {
		return nil, fmt.Errorf("%w: message exceeds %d characters", models.ErrInvalidInput, MaxMessageLength)
	}

	var conv *models.Conversation
	if strings.TrimSpace(conversationID) != "" {
		existing, err := s.store.GetConversation(ctx, conversationID)
		if err != nil {
			return nil, err
		}
		conv = existing
	} else {
		conv = models.NewConversation(s.newID(), text, s.now().UTC())
	}

	history := ai.HistoryFromConversation(conv)
	history = append(history, ai.ChatMessage{Role: ai.RoleUser, Content: text})

	sentAt := s.now().UTC()
	resp, err := s.assistant.Chat(ctx, history, s.loadProfile(ctx))
	if err != nil {
		s.log.Warn("guidance_chat_failed", zap.String("conversation_id", conv.ID), zap.Error(err))
		return nil, err
	}

	conv.AppendUser(s.newID(), text, sentAt)
	conv.AppendAssistant(s.newID(), resp.Content, resp.IsQuestion, s.now().UTC())
	if err := s.store.SaveConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to save conversation: %w", err)
	}

	s.log.Info("guidance_message_answered",
		zap.String("conversation_id", conv.ID),
		zap.Int("messages", len(conv.Messages)),
		zap.Bool("resolved", conv.IsResolved),
	)
	return &Reply{Content: resp.Content, IsQuestion: resp.IsQuestion, ConversationID: conv.ID}, nil
}

// List returns every conversation, most recently updated first
func (s *Service) List(ctx context.Context) ([]*models.Conversation, error) {
	convs, err := s.store.ListConversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return convs, nil
}

func (s *Service) loadProfile(ctx context.Context) *models.Profile {
	if s.profiles == nil {
		return nil
	}
	p, err := s.profiles.Get(ctx)
	if err != nil {
		s.log.Warn("failed_to_load_profile", zap.Error(err))
		return nil
	}
	return p
}
