package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/benvon/napoleon/internal/models"
)

type ConversationStore struct {
	mu    sync.RWMutex
	convs map[string]*models.Conversation
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		convs: make(map[string]*models.Conversation),
	}
}

func (s *ConversationStore) GetConversation(_ context.Context, id string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.convs[id]
	if !ok {
		return nil, fmt.Errorf("conversation %s: %w", id, models.ErrNotFound)
	}
	return conv.Clone(), nil
}

func (s *ConversationStore) SaveConversation(_ context.Context, conv *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.convs[conv.ID] = conv.Clone()
	return nil
}

func (s *ConversationStore) ListConversations(_ context.Context) ([]*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Conversation, 0, len(s.convs))
	for _, conv := range s.convs {
		out = append(out, conv.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LastUpdated.Equal(out[j].LastUpdated) {
			return out[i].ID < out[j].ID
		}
		return out[i].LastUpdated.After(out[j].LastUpdated)
	})
	return out, nil
}
