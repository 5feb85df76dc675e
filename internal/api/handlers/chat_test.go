package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campushub-backend/internal/config"
	"github.com/campushub/campushub-backend/internal/llm"
	"github.com/campushub/campushub-backend/internal/models"
	"github.com/campushub/campushub-backend/internal/providers"
	"github.com/campushub/campushub-backend/internal/repository/memory"
	"github.com/campushub/campushub-backend/internal/search"
	"github.com/campushub/campushub-backend/internal/services"
)

type stubProvider struct {
	response *providers.CompletionResponse
	err      error
	lastReq  *providers.CompletionRequest
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Complete(ctx context.Context, req providers.CompletionRequest) (*providers.CompletionResponse, error) {
	p.lastReq = &req
	if p.err != nil {
		return nil, p.err
	}
	return p.response, nil
}

type stubSearcher struct{}

func (stubSearcher) Search(ctx context.Context, query string, opts search.Options) ([]search.Result, error) {
	return nil, nil
}

type chatTestApp struct {
	app      *fiber.App
	user     *models.User
	messages *memory.MessageRepository
	usage    *memory.TokenUsageRepository
}

// newChatTestApp wires the chat routes behind a middleware stub that injects
// an authenticated user context directly.
func newChatTestApp(t *testing.T, provider *stubProvider) *chatTestApp {
	t.Helper()

	conversations := memory.NewConversationRepository()
	messages := memory.NewMessageRepository()
	usage := memory.NewTokenUsageRepository()
	users := memory.NewUserRepository()

	user := &models.User{Email: "student@campus.edu", Username: "student", Program: "Computer Science"}
	require.NoError(t, users.Create(context.Background(), user))

	cfg := &config.Config{
		LLM:   config.LLMConfig{Model: "test-model", MaxTokens: 256},
		Quota: config.QuotaConfig{FreeMonthlyTokens: 100000, PremiumMonthlyTokens: 1000000},
	}
	svc := services.NewServices(cfg, provider, stubSearcher{}, conversations, messages, usage, users)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if c.Get("X-Test-Anonymous") != "" {
			return c.Next()
		}
		c.Locals("user_id", user.ID.String())
		c.Locals("user_context", &models.UserContext{
			UserID:   user.ID,
			Username: user.Username,
			Email:    user.Email,
			Plan:     user.Plan,
			Program:  user.Program,
		})
		return c.Next()
	})
	app.Post("/chat", PostChat(svc))
	app.Get("/chat", GetChatHistory(svc))

	return &chatTestApp{app: app, user: user, messages: messages, usage: usage}
}

func postChat(t *testing.T, app *fiber.App, body interface{}, headers map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func okResponse(content string) *providers.CompletionResponse {
	return &providers.CompletionResponse{
		ID: "resp-1",
		Choices: []providers.Choice{
			{Message: providers.Message{Role: "assistant", Content: content}},
		},
		Usage: providers.Usage{PromptTokens: 20, CompletionTokens: 10, TotalTokens: 30},
	}
}

func TestPostChatSuccess(t *testing.T) {
	provider := &stubProvider{response: okResponse("Hello back!")}
	f := newChatTestApp(t, provider)

	resp, body := postChat(t, f.app, ChatRequest{Message: "Hello"}, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The authenticated user's program reaches the completion prompt
	require.NotNil(t, provider.lastReq)
	assert.Contains(t, provider.lastReq.Messages[0].Content, "Computer Science")
	assert.NotEmpty(t, body["conversation_id"])

	assistant := body["assistantMessage"].(map[string]interface{})
	assert.Equal(t, "Hello back!", assistant["content"])

	costLog := body["costLog"].(map[string]interface{})
	assert.Equal(t, float64(30), costLog["total_tokens"])

	// Never null, even without search
	results, ok := body["searchResults"].([]interface{})
	require.True(t, ok)
	assert.Empty(t, results)
}

func TestPostChatUnauthenticated(t *testing.T) {
	f := newChatTestApp(t, &stubProvider{response: okResponse("hi")})

	resp, _ := postChat(t, f.app, ChatRequest{Message: "Hello"}, map[string]string{"X-Test-Anonymous": "1"})

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, f.messages.All())
}

func TestPostChatEmptyMessage(t *testing.T) {
	f := newChatTestApp(t, &stubProvider{response: okResponse("hi")})

	resp, body := postChat(t, f.app, ChatRequest{Message: ""}, nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Message is required", body["error"])
	assert.Empty(t, f.messages.All())
}

func TestPostChatMessageTooLong(t *testing.T) {
	f := newChatTestApp(t, &stubProvider{response: okResponse("hi")})

	resp, _ := postChat(t, f.app, ChatRequest{Message: strings.Repeat("x", 4001)}, nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	// Rejected before any persistence
	assert.Empty(t, f.messages.All())
}

func TestPostChatMessageAtLimit(t *testing.T) {
	f := newChatTestApp(t, &stubProvider{response: okResponse("hi")})

	resp, _ := postChat(t, f.app, ChatRequest{Message: strings.Repeat("x", 4000)}, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPostChatQuotaExhausted(t *testing.T) {
	f := newChatTestApp(t, &stubProvider{response: okResponse("hi")})

	// Exhaust the monthly quota up front
	period := currentTestPeriod()
	require.NoError(t, f.usage.AddUsage(context.Background(), f.user.ID, period, 100000))

	resp, body := postChat(t, f.app, ChatRequest{Message: "Hello"}, nil)

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, body["error"], "quota")
	assert.Empty(t, f.messages.All())
}

func TestPostChatUpstreamRateLimit(t *testing.T) {
	f := newChatTestApp(t, &stubProvider{err: &llm.RateLimitError{Message: "slow down"}})

	resp, body := postChat(t, f.app, ChatRequest{Message: "Hello"}, nil)

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Rate limit exceeded. Please try again later.", body["error"])
}

func TestPostChatUpstreamInvalidRequest(t *testing.T) {
	f := newChatTestApp(t, &stubProvider{err: &llm.InvalidRequestError{Message: "bad model"}})

	resp, _ := postChat(t, f.app, ChatRequest{Message: "Hello"}, nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPostChatUpstreamAuthFailure(t *testing.T) {
	f := newChatTestApp(t, &stubProvider{err: &llm.AuthenticationError{Message: "bad key"}})

	resp, _ := postChat(t, f.app, ChatRequest{Message: "Hello"}, nil)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPostChatUnknownError(t *testing.T) {
	f := newChatTestApp(t, &stubProvider{err: errors.New("connection reset")})

	resp, body := postChat(t, f.app, ChatRequest{Message: "Hello"}, nil)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Failed to process chat message", body["error"])
}

func TestPostThenGetHistory(t *testing.T) {
	f := newChatTestApp(t, &stubProvider{response: okResponse("Hello back!")})

	_, body := postChat(t, f.app, ChatRequest{Message: "Hello"}, nil)
	conversationID := body["conversation_id"].(string)

	req := httptest.NewRequest(http.MethodGet, "/chat?conversation_id="+conversationID, nil)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var page struct {
		Messages   []map[string]interface{} `json:"messages"`
		NextCursor string                   `json:"nextCursor"`
	}
	require.NoError(t, json.Unmarshal(raw, &page))

	require.Len(t, page.Messages, 2)
	assert.Empty(t, page.NextCursor)
	// Newest first
	assert.Equal(t, "assistant", page.Messages[0]["role"])
	assert.Equal(t, "user", page.Messages[1]["role"])
}

func TestGetHistoryMissingConversationID(t *testing.T) {
	f := newChatTestApp(t, &stubProvider{response: okResponse("hi")})

	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetHistoryUnauthenticated(t *testing.T) {
	f := newChatTestApp(t, &stubProvider{response: okResponse("hi")})

	req := httptest.NewRequest(http.MethodGet, "/chat?conversation_id=conv-1", nil)
	req.Header.Set("X-Test-Anonymous", "1")
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func currentTestPeriod() string {
	return time.Now().UTC().Format("2006-01")
}
