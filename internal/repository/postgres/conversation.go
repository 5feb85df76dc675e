package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/campushub/campushub-backend/internal/repository"
)

// ConversationRepository implements repository.ConversationRepository using PostgreSQL
type ConversationRepository struct {
	db *sqlx.DB
}

// NewConversationRepository creates a new PostgreSQL conversation repository
func NewConversationRepository(db *sqlx.DB) repository.ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create creates a new conversation
func (r *ConversationRepository) Create(ctx context.Context, conversation *repository.Conversation) error {
	if conversation.ID == "" {
		conversation.ID = uuid.New().String()
	}
	conversation.CreatedAt = time.Now()

	query := `
		INSERT INTO conversations (id, user_id, created_at)
		VALUES (:id, :user_id, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, conversation)
	return err
}

// Get retrieves a conversation by ID
func (r *ConversationRepository) Get(ctx context.Context, id string) (*repository.Conversation, error) {
	var conversation repository.Conversation
	query := `
		SELECT id, user_id, created_at
		FROM conversations
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &conversation, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &conversation, nil
}
