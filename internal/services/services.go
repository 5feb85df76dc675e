package services

import (
	"github.com/campushub/campushub-backend/internal/config"
	"github.com/campushub/campushub-backend/internal/providers"
	"github.com/campushub/campushub-backend/internal/repository"
)

// Services holds all service instances
type Services struct {
	Chat  *ChatService
	Quota *QuotaService
}

// NewServices creates all service instances
func NewServices(
	cfg *config.Config,
	provider providers.CompletionProvider,
	searcher SearchProvider,
	conversationRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	usageRepo repository.TokenUsageRepository,
	userRepo repository.UserRepository,
) *Services {
	quota := NewQuotaService(usageRepo, userRepo, cfg.Quota)
	chat := NewChatService(
		conversationRepo,
		messageRepo,
		quota,
		provider,
		searcher,
		cfg.LLM.Model,
		cfg.LLM.MaxTokens,
		cfg.Search,
	)

	return &Services{
		Chat:  chat,
		Quota: quota,
	}
}
