package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
)

// ConversationStore keeps the message history of one conversation.
type ConversationStore interface {
	// Add appends a message to the history
	Add(ctx context.Context, msg adk.Message) error
	// List returns the full message history
	List(ctx context.Context) ([]adk.Message, error)
	// Clear discards the history
	Clear(ctx context.Context) error
}

// MemoryStore is an in-memory ConversationStore with a sliding window:
// only the most recent messages are kept, and oversized tool responses
// are truncated before storage so the history stays within budget.
type MemoryStore struct {
	mu              sync.RWMutex
	msgs            []adk.Message
	maxMessages     int
	maxToolResponse int
}

// NewMemoryStore creates a store keeping the last 20 messages, with tool
// responses capped at 2000 characters.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		msgs:            make([]adk.Message, 0),
		maxMessages:     20,
		maxToolResponse: 2000,
	}
}

// Add appends a message, truncating tool responses and trimming the window.
func (s *MemoryStore) Add(ctx context.Context, msg adk.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.Role == schema.Tool {
		msg = s.truncateToolResponse(msg)
	}

	s.msgs = append(s.msgs, msg)

	if len(s.msgs) > s.maxMessages {
		s.msgs = s.msgs[len(s.msgs)-s.maxMessages:]
	}

	return nil
}

// truncateToolResponse shortens an oversized tool response, preferring to
// cut at a sentence or paragraph boundary.
func (s *MemoryStore) truncateToolResponse(msg adk.Message) adk.Message {
	if len(msg.Content) <= s.maxToolResponse {
		return msg
	}

	originalLen := len(msg.Content)
	truncated := msg.Content[:s.maxToolResponse]

	cutoff := s.maxToolResponse
	for _, bp := range []string{".\n", ". ", "\n\n", "\n"} {
		if idx := strings.LastIndex(truncated, bp); idx > s.maxToolResponse/2 {
			cutoff = idx + len(bp)
			break
		}
	}

	content := msg.Content[:cutoff]
	content += fmt.Sprintf("\n\n[Content truncated: %d of %d chars kept]", cutoff, originalLen)

	return &schema.Message{
		Role:    msg.Role,
		Content: content,
	}
}

// List returns a copy of the message history.
func (s *MemoryStore) List(ctx context.Context) ([]adk.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]adk.Message, len(s.msgs))
	copy(result, s.msgs)
	return result, nil
}

// Clear discards the history.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = nil
	return nil
}
