package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/campushub/campushub-backend/internal/models"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Conversation represents a chat conversation. Conversations are created
// lazily on the first message of a turn and are immutable afterwards.
type Conversation struct {
	ID        string    `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Message represents one chat message within a conversation
type Message struct {
	ID             string    `json:"id" db:"id"`
	ConversationID string    `json:"conversation_id" db:"conversation_id"`
	UserID         uuid.UUID `json:"user_id" db:"user_id"`
	Role           string    `json:"role" db:"role"`
	Content        string    `json:"content" db:"content"`
	TokenCount     int       `json:"token_count" db:"token_count"`
	IsError        bool      `json:"is_error" db:"is_error"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// ConversationRepository defines conversation storage operations
type ConversationRepository interface {
	Create(ctx context.Context, conversation *Conversation) error
	Get(ctx context.Context, id string) (*Conversation, error)
}

// MessageRepository defines message storage operations
type MessageRepository interface {
	// Create inserts a message, assigning its ID and timestamp.
	Create(ctx context.Context, message *Message) error

	// RecentHistory returns the most recent limit messages of a conversation
	// in chronological order (oldest first).
	RecentHistory(ctx context.Context, conversationID string, limit int) ([]Message, error)

	// ListByCursor pages through a conversation's messages, newest first.
	// An empty cursor starts at the newest message; the returned cursor is
	// empty when no further rows exist.
	ListByCursor(ctx context.Context, conversationID string, limit int, cursor string) ([]Message, string, error)

	// UpdateTokenCount corrects a message's stored token count.
	UpdateTokenCount(ctx context.Context, id string, tokenCount int) error
}

// TokenUsageRepository defines the per-user monthly token ledger operations
type TokenUsageRepository interface {
	// MonthlyUsage returns the tokens consumed by a user in the given
	// period (formatted "2006-01"). Missing rows count as zero.
	MonthlyUsage(ctx context.Context, userID uuid.UUID, period string) (int64, error)

	// AddUsage adds tokens to a user's counter for the given period.
	AddUsage(ctx context.Context, userID uuid.UUID, period string, tokens int) error
}

// UserRepository defines user storage operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
}
