package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/benvon/napoleon/internal/models"
)

type messageDoc struct {
	ID         string    `firestore:"id"`
	Content    string    `firestore:"content"`
	Author     string    `firestore:"author"`
	Timestamp  time.Time `firestore:"timestamp"`
	IsQuestion bool      `firestore:"isQuestion"`
}

type conversationDoc struct {
	Title       string       `firestore:"title"`
	Messages    []messageDoc `firestore:"messages"`
	IsResolved  bool         `firestore:"isResolved"`
	LastUpdated time.Time    `firestore:"lastUpdated"`
}

func (d conversationDoc) toModel(id string) *models.Conversation {
	msgs := make([]models.Message, len(d.Messages))
	for i, m := range d.Messages {
		msgs[i] = models.Message{
			ID:         m.ID,
			Content:    m.Content,
			Author:     models.Author(m.Author),
			Timestamp:  m.Timestamp,
			IsQuestion: m.IsQuestion,
		}
	}
	return &models.Conversation{
		ID:          id,
		Title:       d.Title,
		Messages:    msgs,
		IsResolved:  d.IsResolved,
		LastUpdated: d.LastUpdated,
	}
}

func (s *Store) conversationsCol() *firestore.CollectionRef {
	return s.client.Collection(conversationsCollection)
}

func (s *Store) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	snap, err := s.conversationsCol().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("conversation %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("firestore GetConversation: %w", err)
	}

	var doc conversationDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetConversation decode: %w", err)
	}
	return doc.toModel(id), nil
}

func (s *Store) SaveConversation(ctx context.Context, conv *models.Conversation) error {
	msgs := make([]messageDoc, len(conv.Messages))
	for i, m := range conv.Messages {
		msgs[i] = messageDoc{
			ID:         m.ID,
			Content:    m.Content,
			Author:     string(m.Author),
			Timestamp:  m.Timestamp,
			IsQuestion: m.IsQuestion,
		}
	}
	doc := conversationDoc{
		Title:       conv.Title,
		Messages:    msgs,
		IsResolved:  conv.IsResolved,
		LastUpdated: conv.LastUpdated,
	}
	if _, err := s.conversationsCol().Doc(conv.ID).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore SaveConversation: %w", err)
	}
	return nil
}

func (s *Store) ListConversations(ctx context.Context) ([]*models.Conversation, error) {
	iter := s.conversationsCol().OrderBy("lastUpdated", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	out := make([]*models.Conversation, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore ListConversations: %w", err)
		}

		var doc conversationDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode conversationDoc: %w", err)
		}
		out = append(out, doc.toModel(snap.Ref.ID))
	}
	return out, nil
}
