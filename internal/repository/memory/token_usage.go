package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// TokenUsageRepository is an in-memory repository.TokenUsageRepository
type TokenUsageRepository struct {
	mu    sync.RWMutex
	usage map[string]int64
}

// NewTokenUsageRepository creates an empty in-memory token usage repository
func NewTokenUsageRepository() *TokenUsageRepository {
	return &TokenUsageRepository{
		usage: make(map[string]int64),
	}
}

func usageKey(userID uuid.UUID, period string) string {
	return userID.String() + ":" + period
}

// MonthlyUsage returns the tokens consumed by a user in the given period
func (r *TokenUsageRepository) MonthlyUsage(ctx context.Context, userID uuid.UUID, period string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.usage[usageKey(userID, period)], nil
}

// AddUsage adds tokens to a user's monthly counter
func (r *TokenUsageRepository) AddUsage(ctx context.Context, userID uuid.UUID, period string, tokens int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.usage[usageKey(userID, period)] += int64(tokens)
	return nil
}
