package models

import (
	"strings"
	"testing"
	"time"
)

func TestDeriveTitle(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", MaxTitleLength+10)
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"short", "How do I focus?", "How do I focus?"},
		{"exact", strings.Repeat("b", MaxTitleLength), strings.Repeat("b", MaxTitleLength)},
		{"long", long, strings.Repeat("a", MaxTitleLength) + "..."},
		{"multibyte", strings.Repeat("é", MaxTitleLength+1), strings.Repeat("é", MaxTitleLength) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DeriveTitle(tt.input); got != tt.want {
				t.Errorf("DeriveTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConversation_ResolutionTransitions(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	conv := NewConversation("c1", "I keep procrastinating", now)
	if conv.IsResolved {
		t.Fatal("Expected new conversation to be open")
	}

	conv.AppendUser("m1", "I keep procrastinating", now)
	if conv.IsResolved {
		t.Error("Expected user message to leave conversation open")
	}

	conv.AppendAssistant("m2", "What are you avoiding?", true, now.Add(time.Second))
	if conv.IsResolved {
		t.Error("Expected question reply to keep conversation open")
	}

	conv.AppendUser("m3", "My taxes", now.Add(2*time.Second))
	conv.AppendAssistant("m4", "Block 30 minutes tomorrow morning for them.", false, now.Add(3*time.Second))
	if !conv.IsResolved {
		t.Error("Expected statement reply to resolve conversation")
	}

	conv.AppendUser("m5", "Thanks!", now.Add(4*time.Second))
	if !conv.IsResolved {
		t.Error("Expected user message not to reopen a resolved conversation")
	}
	if len(conv.Messages) != 5 {
		t.Errorf("Expected 5 messages, got %d", len(conv.Messages))
	}
	if !conv.LastUpdated.Equal(now.Add(4 * time.Second)) {
		t.Errorf("LastUpdated = %v, want %v", conv.LastUpdated, now.Add(4*time.Second))
	}
}

func TestConversation_Clone(t *testing.T) {
	t.Parallel()
	conv := NewConversation("c1", "hello", time.Now())
	conv.AppendUser("m1", "hello", time.Now())

	clone := conv.Clone()
	clone.AppendAssistant("m2", "hi", false, time.Now())

	if len(conv.Messages) != 1 {
		t.Errorf("Expected original to keep 1 message, got %d", len(conv.Messages))
	}
	if conv.IsResolved {
		t.Error("Expected original resolution state to be untouched")
	}
}
