package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/campushub/campushub-backend/internal/config"
	"github.com/campushub/campushub-backend/internal/llm"
	"github.com/campushub/campushub-backend/internal/providers"
	"github.com/campushub/campushub-backend/internal/repository"
	"github.com/campushub/campushub-backend/internal/search"
)

const (
	// MaxMessageLength is the longest accepted inbound message
	MaxMessageLength = 4000
	// HistoryWindow caps how many prior messages are sent to the provider
	HistoryWindow = 20

	defaultSearchMaxResults   = 3
	defaultSearchMinRelevance = 0.6

	fallbackReply = "Sorry, I could not generate a response."
	errorReply    = "Sorry, something went wrong while generating a response. Please try again."

	systemPrompt = "You are a helpful assistant for a university community platform. " +
		"You help students with questions about courses, campus life, and studying. " +
		"Be concise and friendly."
)

// ErrQuotaExhausted is returned when the pre-flight quota check denies a turn
var ErrQuotaExhausted = errors.New("monthly token quota exhausted")

// TurnResult is the outcome of one successful chat turn
type TurnResult struct {
	ConversationID   string
	UserMessage      *repository.Message
	AssistantMessage *repository.Message
	CostLog          providers.Usage
	SearchResults    []search.Result
}

// ChatService runs the chat-turn pipeline: quota gate, conversation
// bootstrap, history assembly, optional search augmentation, completion
// call, and persistence of the assistant's reply.
//
// Concurrent turns against the same conversation are not coordinated;
// interleaved appends are last-writer-wins, which is acceptable for a
// low-contention chat UI.
type ChatService struct {
	conversations      repository.ConversationRepository
	messages           repository.MessageRepository
	quota              *QuotaService
	provider           providers.CompletionProvider
	searcher           SearchProvider
	model              string
	maxTokens          int
	searchMaxResults   int
	searchMinRelevance float64
	log                *logrus.Entry
}

// NewChatService creates a new chat service
func NewChatService(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	quota *QuotaService,
	provider providers.CompletionProvider,
	searcher SearchProvider,
	model string,
	maxTokens int,
	searchCfg config.SearchConfig,
) *ChatService {
	maxResults := searchCfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultSearchMaxResults
	}
	minRelevance := searchCfg.MinRelevance
	if minRelevance <= 0 {
		minRelevance = defaultSearchMinRelevance
	}

	return &ChatService{
		conversations:      conversations,
		messages:           messages,
		quota:              quota,
		provider:           provider,
		searcher:           searcher,
		model:              model,
		maxTokens:          maxTokens,
		searchMaxResults:   maxResults,
		searchMinRelevance: minRelevance,
		log:                logrus.WithField("component", "chat"),
	}
}

// SendMessage executes one chat turn. Classified upstream failures
// (rate-limit, quota, invalid-request, authentication) are returned as typed
// errors without persisting an assistant message; any other completion
// failure persists an error-flagged assistant placeholder so the
// conversation history stays paired.
func (s *ChatService) SendMessage(ctx context.Context, userID uuid.UUID, program, conversationID, content string) (*TurnResult, error) {
	// Pre-flight quota gate: a heuristic estimate, not a reservation.
	estimate := EstimateTokens(content)
	allowed, err := s.quota.CanStartConversation(ctx, userID, estimate)
	if err != nil {
		return nil, fmt.Errorf("failed to check quota: %w", err)
	}
	if !allowed {
		return nil, ErrQuotaExhausted
	}

	// Lazily create a conversation when none was supplied.
	if conversationID == "" {
		conversation := &repository.Conversation{UserID: userID}
		if err := s.conversations.Create(ctx, conversation); err != nil {
			return nil, fmt.Errorf("failed to create conversation: %w", err)
		}
		conversationID = conversation.ID
	}

	userMessage := &repository.Message{
		ConversationID: conversationID,
		UserID:         userID,
		Role:           repository.RoleUser,
		Content:        content,
		TokenCount:     estimate,
	}
	if err := s.messages.Create(ctx, userMessage); err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	// History is advisory context: a failed read degrades to an empty
	// window instead of failing the turn.
	history, err := s.messages.RecentHistory(ctx, conversationID, HistoryWindow)
	if err != nil {
		s.log.WithError(err).WithField("conversation_id", conversationID).
			Warn("failed to load chat history, continuing without context")
		history = nil
	}

	searchResults := s.augment(ctx, content)

	response, err := s.provider.Complete(ctx, providers.CompletionRequest{
		Messages:  s.buildPrompt(history, userMessage, searchResults, program),
		Model:     s.model,
		MaxTokens: s.maxTokens,
		User:      userID.String(),
	})
	if err != nil {
		if isClassified(err) {
			// Treated as a turn that never started; nothing further is
			// persisted.
			return nil, err
		}

		// Keep the history paired even on unexpected failures.
		errorMessage := &repository.Message{
			ConversationID: conversationID,
			UserID:         userID,
			Role:           repository.RoleAssistant,
			Content:        errorReply,
			IsError:        true,
		}
		if persistErr := s.messages.Create(ctx, errorMessage); persistErr != nil {
			s.log.WithError(persistErr).WithField("conversation_id", conversationID).
				Error("failed to save error placeholder message")
		}
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	reply := fallbackReply
	if len(response.Choices) > 0 && response.Choices[0].Message.Content != "" {
		reply = response.Choices[0].Message.Content
	}

	assistantMessage := &repository.Message{
		ConversationID: conversationID,
		UserID:         userID,
		Role:           repository.RoleAssistant,
		Content:        reply,
		TokenCount:     response.Usage.CompletionTokens,
	}
	if err := s.messages.Create(ctx, assistantMessage); err != nil {
		return nil, fmt.Errorf("failed to save assistant message: %w", err)
	}

	// Correct the user message's estimated count now that exact usage is
	// known. Best-effort: a failure here never fails the turn.
	promptTokens := response.Usage.PromptTokens - response.Usage.CompletionTokens
	if err := s.messages.UpdateTokenCount(ctx, userMessage.ID, promptTokens); err != nil {
		s.log.WithError(err).WithField("message_id", userMessage.ID).
			Warn("failed to correct user message token count")
	} else {
		userMessage.TokenCount = promptTokens
	}

	if err := s.quota.UpdateTokenUsage(ctx, userID, response.Usage.TotalTokens); err != nil {
		s.log.WithError(err).WithField("user_id", userID.String()).
			Error("failed to record token usage")
	}

	return &TurnResult{
		ConversationID:   conversationID,
		UserMessage:      userMessage,
		AssistantMessage: assistantMessage,
		CostLog:          response.Usage,
		SearchResults:    searchResults,
	}, nil
}

// augment runs the web search heuristic. Search failures are swallowed;
// enrichment must never block or fail the turn.
func (s *ChatService) augment(ctx context.Context, content string) []search.Result {
	if s.searcher == nil || !needsWebSearch(content) {
		return nil
	}

	results, err := s.searcher.Search(ctx, content, search.Options{
		MaxResults:   s.searchMaxResults,
		MinRelevance: s.searchMinRelevance,
		UseCache:     true,
	})
	if err != nil {
		s.log.WithError(err).Warn("web search failed, continuing without search context")
		return nil
	}
	return results
}

// buildPrompt assembles the provider message list: system prompt carrying the
// student's program context, then the history window. The search context is
// appended only to the prompt copy of the current user message, never to the
// stored record.
func (s *ChatService) buildPrompt(history []repository.Message, userMessage *repository.Message, results []search.Result, program string) []providers.Message {
	suffix := formatSearchContext(results)

	system := systemPrompt
	if program != "" {
		system += fmt.Sprintf(" The student is enrolled in the %s program.", program)
	}

	prompt := make([]providers.Message, 0, len(history)+2)
	prompt = append(prompt, providers.Message{
		Role:    repository.RoleSystem,
		Content: system,
	})

	found := false
	for _, msg := range history {
		content := msg.Content
		if msg.ID == userMessage.ID {
			content += suffix
			found = true
		}
		prompt = append(prompt, providers.Message{
			Role:    msg.Role,
			Content: content,
		})
	}

	// The history read can fail (degraded turn); the current message must
	// still reach the provider.
	if !found {
		prompt = append(prompt, providers.Message{
			Role:    repository.RoleUser,
			Content: userMessage.Content + suffix,
		})
	}

	return prompt
}

// History pages through a conversation's messages, newest first
func (s *ChatService) History(ctx context.Context, conversationID string, limit int, cursor string) ([]repository.Message, string, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	messages, nextCursor, err := s.messages.ListByCursor(ctx, conversationID, limit, cursor)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load messages: %w", err)
	}
	return messages, nextCursor, nil
}

// isClassified reports whether the completion error carries one of the
// gateway's typed classifications.
func isClassified(err error) bool {
	var (
		rateLimit   *llm.RateLimitError
		quota       *llm.QuotaExceededError
		invalid     *llm.InvalidRequestError
		authFailure *llm.AuthenticationError
	)
	return errors.As(err, &rateLimit) ||
		errors.As(err, &quota) ||
		errors.As(err, &invalid) ||
		errors.As(err, &authFailure)
}
