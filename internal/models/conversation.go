package models

import (
	"time"
	"unicode/utf8"
)

// Author identifies who wrote a guidance message
type Author string

const (
	AuthorUser      Author = "user"
	AuthorAssistant Author = "assistant"
)

// MaxTitleLength is the number of runes of the first message kept as the conversation title
const MaxTitleLength = 50

// Message is a single entry in a guidance conversation
type Message struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	Author     Author    `json:"author"`
	Timestamp  time.Time `json:"timestamp"`
	IsQuestion bool      `json:"isQuestion,omitempty"`
}

// Conversation is an ordered exchange between the user and the guidance assistant.
// IsResolved is true iff the most recent assistant message is not a question.
type Conversation struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Messages    []Message `json:"messages"`
	IsResolved  bool      `json:"isResolved"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// NewConversation starts an open conversation whose title derives from the first user message
func NewConversation(id, firstMessage string, at time.Time) *Conversation {
	return &Conversation{
		ID:          id,
		Title:       DeriveTitle(firstMessage),
		Messages:    make([]Message, 0, 2),
		IsResolved:  false,
		LastUpdated: at,
	}
}

// DeriveTitle truncates the first message to MaxTitleLength runes, marking truncation with "..."
func DeriveTitle(firstMessage string) string {
	if utf8.RuneCountInString(firstMessage) <= MaxTitleLength {
		return firstMessage
	}
	runes := []rune(firstMessage)
	return string(runes[:MaxTitleLength]) + "..."
}

// AppendUser adds a user message. Resolution state is left unchanged.
func (c *Conversation) AppendUser(id, content string, at time.Time) Message {
	msg := Message{ID: id, Content: content, Author: AuthorUser, Timestamp: at}
	c.Messages = append(c.Messages, msg)
	c.LastUpdated = at
	return msg
}

// AppendAssistant adds an assistant reply and resolves the conversation unless the reply is a question.
func (c *Conversation) AppendAssistant(id, content string, isQuestion bool, at time.Time) Message {
	msg := Message{ID: id, Content: content, Author: AuthorAssistant, Timestamp: at, IsQuestion: isQuestion}
	c.Messages = append(c.Messages, msg)
	c.IsResolved = !isQuestion
	c.LastUpdated = at
	return msg
}

// Clone returns a deep copy so callers can mutate without touching stored state
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	out.Messages = append([]Message(nil), c.Messages...)
	return &out
}
