package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/campushub/campushub-backend/internal/config"
	"github.com/campushub/campushub-backend/internal/models"
	"github.com/campushub/campushub-backend/internal/repository"
)

// EstimateTokens estimates the token cost of a message before the provider
// reports exact usage: ceil(character_length / 4).
func EstimateTokens(s string) int {
	return (len(s) + 3) / 4
}

// QuotaService is the per-user monthly token ledger. The pre-flight check is
// a read-only gate; tokens are deducted only after a completion succeeds.
type QuotaService struct {
	usage repository.TokenUsageRepository
	users repository.UserRepository
	cfg   config.QuotaConfig
	log   *logrus.Entry
}

// NewQuotaService creates a new quota service
func NewQuotaService(usage repository.TokenUsageRepository, users repository.UserRepository, cfg config.QuotaConfig) *QuotaService {
	return &QuotaService{
		usage: usage,
		users: users,
		cfg:   cfg,
		log:   logrus.WithField("component", "quota"),
	}
}

func currentPeriod() string {
	return time.Now().UTC().Format("2006-01")
}

func (s *QuotaService) planLimit(plan string) int64 {
	if plan == models.PlanPremium {
		return s.cfg.PremiumMonthlyTokens
	}
	return s.cfg.FreeMonthlyTokens
}

// CanStartConversation reports whether the user's projected monthly usage
// (current usage + estimate) stays within their plan ceiling.
func (s *QuotaService) CanStartConversation(ctx context.Context, userID uuid.UUID, estimatedTokens int) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return false, fmt.Errorf("user not found: %s", userID)
	}

	used, err := s.usage.MonthlyUsage(ctx, userID, currentPeriod())
	if err != nil {
		return false, fmt.Errorf("failed to read token usage: %w", err)
	}

	return used+int64(estimatedTokens) <= s.planLimit(user.Plan), nil
}

// UpdateTokenUsage records the exact token cost of a completed turn
func (s *QuotaService) UpdateTokenUsage(ctx context.Context, userID uuid.UUID, totalTokens int) error {
	if err := s.usage.AddUsage(ctx, userID, currentPeriod(), totalTokens); err != nil {
		return fmt.Errorf("failed to update token usage: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"user_id": userID.String(),
		"tokens":  totalTokens,
	}).Debug("token usage recorded")

	return nil
}
