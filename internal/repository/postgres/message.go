package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/campushub/campushub-backend/internal/repository"
)

// MessageRepository implements repository.MessageRepository using PostgreSQL
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates a new PostgreSQL message repository
func NewMessageRepository(db *sqlx.DB) repository.MessageRepository {
	return &MessageRepository{db: db}
}

// Create creates a new message
func (r *MessageRepository) Create(ctx context.Context, message *repository.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	message.CreatedAt = time.Now()

	query := `
		INSERT INTO messages (id, conversation_id, user_id, role, content, token_count, is_error, created_at)
		VALUES (:id, :conversation_id, :user_id, :role, :content, :token_count, :is_error, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, message)
	return err
}

// RecentHistory retrieves the most recent limit messages of a conversation.
// The fetch is newest-first for the index; rows are reversed so the caller
// always sees chronological order.
func (r *MessageRepository) RecentHistory(ctx context.Context, conversationID string, limit int) ([]repository.Message, error) {
	var messages []repository.Message
	query := `
		SELECT id, conversation_id, user_id, role, content, token_count, is_error, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	err := r.db.SelectContext(ctx, &messages, query, conversationID, limit)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// ListByCursor pages through a conversation's messages newest-first using
// keyset pagination on (created_at, id). One extra row is fetched to decide
// whether a next cursor exists.
func (r *MessageRepository) ListByCursor(ctx context.Context, conversationID string, limit int, cursor string) ([]repository.Message, string, error) {
	var messages []repository.Message
	var err error

	if cursor == "" {
		query := `
			SELECT id, conversation_id, user_id, role, content, token_count, is_error, created_at
			FROM messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		`
		err = r.db.SelectContext(ctx, &messages, query, conversationID, limit+1)
	} else {
		query := `
			SELECT id, conversation_id, user_id, role, content, token_count, is_error, created_at
			FROM messages
			WHERE conversation_id = $1
			  AND (created_at, id) < (
				SELECT created_at, id FROM messages WHERE id = $2
			  )
			ORDER BY created_at DESC, id DESC
			LIMIT $3
		`
		err = r.db.SelectContext(ctx, &messages, query, conversationID, cursor, limit+1)
	}
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(messages) > limit {
		messages = messages[:limit]
		nextCursor = messages[len(messages)-1].ID
	}

	return messages, nextCursor, nil
}

// UpdateTokenCount corrects a message's stored token count
func (r *MessageRepository) UpdateTokenCount(ctx context.Context, id string, tokenCount int) error {
	query := `UPDATE messages SET token_count = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, tokenCount, id)
	return err
}
