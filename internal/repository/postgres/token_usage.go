package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/campushub/campushub-backend/internal/repository"
)

// TokenUsageRepository implements repository.TokenUsageRepository using PostgreSQL
type TokenUsageRepository struct {
	db *sqlx.DB
}

// NewTokenUsageRepository creates a new PostgreSQL token usage repository
func NewTokenUsageRepository(db *sqlx.DB) repository.TokenUsageRepository {
	return &TokenUsageRepository{db: db}
}

// MonthlyUsage returns the tokens a user has consumed in the given period
func (r *TokenUsageRepository) MonthlyUsage(ctx context.Context, userID uuid.UUID, period string) (int64, error) {
	var used int64
	query := `
		SELECT COALESCE(SUM(tokens_used), 0)
		FROM token_usage
		WHERE user_id = $1 AND period = $2
	`

	err := r.db.GetContext(ctx, &used, query, userID, period)
	if err != nil {
		return 0, err
	}

	return used, nil
}

// AddUsage adds tokens to a user's monthly counter
func (r *TokenUsageRepository) AddUsage(ctx context.Context, userID uuid.UUID, period string, tokens int) error {
	query := `
		INSERT INTO token_usage (user_id, period, tokens_used, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, period)
		DO UPDATE SET tokens_used = token_usage.tokens_used + EXCLUDED.tokens_used, updated_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query, userID, period, tokens)
	return err
}
