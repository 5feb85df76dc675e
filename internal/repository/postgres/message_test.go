package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campushub-backend/internal/repository"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func messageColumns() []string {
	return []string{"id", "conversation_id", "user_id", "role", "content", "token_count", "is_error", "created_at"}
}

func TestMessageCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepository(db)

	mock.ExpectExec("INSERT INTO messages").
		WithArgs(sqlmock.AnyArg(), "conv-1", sqlmock.AnyArg(), repository.RoleUser, "hello", 2, false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	message := &repository.Message{
		ConversationID: "conv-1",
		UserID:         uuid.New(),
		Role:           repository.RoleUser,
		Content:        "hello",
		TokenCount:     2,
	}
	require.NoError(t, repo.Create(context.Background(), message))

	assert.NotEmpty(t, message.ID)
	assert.False(t, message.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentHistoryReversesToChronological(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepository(db)

	userID := uuid.New()
	now := time.Now()
	// The index scan returns newest first
	rows := sqlmock.NewRows(messageColumns()).
		AddRow("msg-3", "conv-1", userID, repository.RoleUser, "third", 1, false, now).
		AddRow("msg-2", "conv-1", userID, repository.RoleAssistant, "second", 1, false, now.Add(-time.Minute)).
		AddRow("msg-1", "conv-1", userID, repository.RoleUser, "first", 1, false, now.Add(-2*time.Minute))

	mock.ExpectQuery("SELECT (.+) FROM messages").
		WithArgs("conv-1", 20).
		WillReturnRows(rows)

	messages, err := repo.RecentHistory(context.Background(), "conv-1", 20)
	require.NoError(t, err)

	require.Len(t, messages, 3)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "second", messages[1].Content)
	assert.Equal(t, "third", messages[2].Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByCursorFirstPage(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepository(db)

	userID := uuid.New()
	now := time.Now()
	// limit+1 rows returned means another page exists
	rows := sqlmock.NewRows(messageColumns()).
		AddRow("msg-5", "conv-1", userID, repository.RoleAssistant, "e", 1, false, now).
		AddRow("msg-4", "conv-1", userID, repository.RoleUser, "d", 1, false, now.Add(-time.Minute)).
		AddRow("msg-3", "conv-1", userID, repository.RoleAssistant, "c", 1, false, now.Add(-2*time.Minute))

	mock.ExpectQuery("SELECT (.+) FROM messages").
		WithArgs("conv-1", 3).
		WillReturnRows(rows)

	messages, nextCursor, err := repo.ListByCursor(context.Background(), "conv-1", 2, "")
	require.NoError(t, err)

	require.Len(t, messages, 2)
	assert.Equal(t, "msg-5", messages[0].ID)
	assert.Equal(t, "msg-4", messages[1].ID)
	assert.Equal(t, "msg-4", nextCursor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByCursorLastPage(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepository(db)

	userID := uuid.New()
	rows := sqlmock.NewRows(messageColumns()).
		AddRow("msg-2", "conv-1", userID, repository.RoleAssistant, "b", 1, false, time.Now()).
		AddRow("msg-1", "conv-1", userID, repository.RoleUser, "a", 1, false, time.Now().Add(-time.Minute))

	mock.ExpectQuery("SELECT (.+) FROM messages").
		WithArgs("conv-1", "msg-3", 3).
		WillReturnRows(rows)

	messages, nextCursor, err := repo.ListByCursor(context.Background(), "conv-1", 2, "msg-3")
	require.NoError(t, err)

	require.Len(t, messages, 2)
	assert.Empty(t, nextCursor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByCursorEmptyConversation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM messages").
		WithArgs("conv-1", 51).
		WillReturnRows(sqlmock.NewRows(messageColumns()))

	messages, nextCursor, err := repo.ListByCursor(context.Background(), "conv-1", 50, "")
	require.NoError(t, err)

	assert.Empty(t, messages)
	assert.Empty(t, nextCursor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTokenCount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepository(db)

	mock.ExpectExec("UPDATE messages SET token_count").
		WithArgs(42, "msg-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateTokenCount(context.Background(), "msg-1", 42))
	assert.NoError(t, mock.ExpectationsWereMet())
}
