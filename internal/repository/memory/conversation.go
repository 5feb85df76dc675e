// Package memory provides in-memory repository implementations used as
// substitutes for the PostgreSQL repositories in tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/campushub/campushub-backend/internal/repository"
)

// ConversationRepository is an in-memory repository.ConversationRepository
type ConversationRepository struct {
	mu            sync.RWMutex
	conversations map[string]repository.Conversation
}

// NewConversationRepository creates an empty in-memory conversation repository
func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{
		conversations: make(map[string]repository.Conversation),
	}
}

// Create stores a new conversation
func (r *ConversationRepository) Create(ctx context.Context, conversation *repository.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conversation.ID == "" {
		conversation.ID = uuid.New().String()
	}
	conversation.CreatedAt = time.Now()
	r.conversations[conversation.ID] = *conversation
	return nil
}

// Get retrieves a conversation by ID
func (r *ConversationRepository) Get(ctx context.Context, id string) (*repository.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conversation, ok := r.conversations[id]
	if !ok {
		return nil, nil
	}
	return &conversation, nil
}
