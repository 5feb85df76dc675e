package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/campushub/campushub-backend/internal/api/middleware"
	"github.com/campushub/campushub-backend/internal/llm"
	"github.com/campushub/campushub-backend/internal/search"
	"github.com/campushub/campushub-backend/internal/services"
)

// ChatRequest represents a chat turn request
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
	Stream         bool   `json:"stream"` // accepted but unused
}

// PostChat runs one chat turn
func PostChat(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userContext := middleware.GetUserContext(c)
		if userContext == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Not authenticated",
			})
		}

		var req ChatRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		// Validation faults fail fast, before any persistence.
		if req.Message == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Message is required",
			})
		}
		if len(req.Message) > services.MaxMessageLength {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Message is too long (maximum 4000 characters)",
			})
		}

		result, err := svc.Chat.SendMessage(c.Context(), userContext.UserID, userContext.Program, req.ConversationID, req.Message)
		if err != nil {
			return chatErrorResponse(c, err)
		}

		searchResults := result.SearchResults
		if searchResults == nil {
			searchResults = []search.Result{}
		}

		return c.JSON(fiber.Map{
			"conversation_id":  result.ConversationID,
			"userMessage":      result.UserMessage,
			"assistantMessage": result.AssistantMessage,
			"costLog":          result.CostLog,
			"searchResults":    searchResults,
		})
	}
}

// chatErrorResponse maps pipeline errors to response statuses
func chatErrorResponse(c *fiber.Ctx, err error) error {
	var (
		rateLimit   *llm.RateLimitError
		quota       *llm.QuotaExceededError
		invalid     *llm.InvalidRequestError
		authFailure *llm.AuthenticationError
	)

	switch {
	case errors.Is(err, services.ErrQuotaExhausted):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "Monthly token quota exceeded. Please upgrade your plan or wait until next month.",
		})
	case errors.As(err, &rateLimit):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "Rate limit exceeded. Please try again later.",
		})
	case errors.As(err, &quota):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "The assistant is temporarily unavailable due to usage limits.",
		})
	case errors.As(err, &invalid):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "The request could not be processed.",
		})
	case errors.As(err, &authFailure):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "The assistant is not available right now.",
		})
	default:
		logrus.WithError(err).Error("chat turn failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process chat message",
		})
	}
}

// GetChatHistory pages through a conversation's messages.
//
// TODO: only the session is checked here; conversation ownership is not
// verified, so any authenticated user can read any conversation by id.
func GetChatHistory(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userContext := middleware.GetUserContext(c)
		if userContext == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Not authenticated",
			})
		}

		conversationID := c.Query("conversation_id")
		if conversationID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "conversation_id is required",
			})
		}

		limit := c.QueryInt("limit", 50)
		cursor := c.Query("cursor")

		messages, nextCursor, err := svc.Chat.History(c.Context(), conversationID, limit, cursor)
		if err != nil {
			logrus.WithError(err).Error("failed to load chat history")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to load messages",
			})
		}

		return c.JSON(fiber.Map{
			"messages":   messages,
			"nextCursor": nextCursor,
		})
	}
}
