package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/campushub/campushub-backend/internal/repository"
)

// MessageRepository is an in-memory repository.MessageRepository. Messages
// keep an insertion sequence so ordering matches arrival order even when
// timestamps collide.
type MessageRepository struct {
	mu       sync.RWMutex
	messages []repository.Message
	byID     map[string]int
}

// NewMessageRepository creates an empty in-memory message repository
func NewMessageRepository() *MessageRepository {
	return &MessageRepository{
		byID: make(map[string]int),
	}
}

// Create stores a new message
func (r *MessageRepository) Create(ctx context.Context, message *repository.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	message.CreatedAt = time.Now()
	r.byID[message.ID] = len(r.messages)
	r.messages = append(r.messages, *message)
	return nil
}

// RecentHistory returns the most recent limit messages in chronological order
func (r *MessageRepository) RecentHistory(ctx context.Context, conversationID string, limit int) ([]repository.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []repository.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			all = append(all, m)
		}
	}
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

// ListByCursor pages newest-first through a conversation's messages
func (r *MessageRepository) ListByCursor(ctx context.Context, conversationID string, limit int, cursor string) ([]repository.Message, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []repository.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			all = append(all, m)
		}
	}

	// Newest first
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}

	// An unknown cursor matches no rows, same as the keyset comparison in
	// the postgres repository.
	start := len(all)
	if cursor == "" {
		start = 0
	} else {
		for i, m := range all {
			if m.ID == cursor {
				start = i + 1
				break
			}
		}
	}

	page := all[start:]
	nextCursor := ""
	if len(page) > limit {
		page = page[:limit]
		nextCursor = page[len(page)-1].ID
	}
	return page, nextCursor, nil
}

// UpdateTokenCount corrects a message's stored token count
func (r *MessageRepository) UpdateTokenCount(ctx context.Context, id string, tokenCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("message not found: %s", id)
	}
	r.messages[idx].TokenCount = tokenCount
	return nil
}

// All returns every stored message in insertion order (test helper)
func (r *MessageRepository) All() []repository.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]repository.Message, len(r.messages))
	copy(out, r.messages)
	return out
}
