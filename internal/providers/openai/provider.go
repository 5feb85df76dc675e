package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/campushub/campushub-backend/internal/config"
	"github.com/campushub/campushub-backend/internal/llm"
	"github.com/campushub/campushub-backend/internal/providers"
)

// Provider implements the OpenAI completion provider
type Provider struct {
	config config.LLMConfig
	client *openai.Client
}

// NewProvider creates a new OpenAI provider
func NewProvider(cfg config.LLMConfig) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	client := openai.NewClient(cfg.APIKey)

	return &Provider{
		config: cfg,
		client: client,
	}, nil
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "openai"
}

// Complete performs a non-streaming completion
func (p *Provider) Complete(ctx context.Context, req providers.CompletionRequest) (*providers.CompletionResponse, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.convertRequest(req))
	if err != nil {
		return nil, mapError(err)
	}

	return p.convertResponse(&resp), nil
}

// convertRequest converts internal request to OpenAI request
func (p *Provider) convertRequest(req providers.CompletionRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	model := req.Model
	if model == "" {
		model = p.config.Model
	}

	openAIReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
		User:     req.User,
	}

	if req.MaxTokens > 0 {
		openAIReq.MaxTokens = req.MaxTokens
	} else if p.config.MaxTokens > 0 {
		openAIReq.MaxTokens = p.config.MaxTokens
	}

	return openAIReq
}

// convertResponse converts OpenAI response to internal response
func (p *Provider) convertResponse(resp *openai.ChatCompletionResponse) *providers.CompletionResponse {
	choices := make([]providers.Choice, len(resp.Choices))
	for i, choice := range resp.Choices {
		choices[i] = providers.Choice{
			Index: choice.Index,
			Message: providers.Message{
				Role:    choice.Message.Role,
				Content: choice.Message.Content,
			},
			FinishReason: string(choice.FinishReason),
		}
	}

	return &providers.CompletionResponse{
		ID:      resp.ID,
		Model:   resp.Model,
		Choices: choices,
		Usage: providers.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
}

// mapError classifies an upstream failure into the gateway's typed errors.
// API errors carry an HTTP status; transport-level failures fall back to
// message inspection before being passed through unclassified.
func mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		msg := strings.ToLower(apiErr.Message)
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			if strings.Contains(msg, "quota") {
				return &llm.QuotaExceededError{Message: apiErr.Message}
			}
			return &llm.RateLimitError{Message: apiErr.Message}
		case http.StatusUnauthorized, http.StatusForbidden:
			return &llm.AuthenticationError{Message: apiErr.Message}
		case http.StatusBadRequest:
			return &llm.InvalidRequestError{Message: apiErr.Message}
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit"):
		return &llm.RateLimitError{Message: err.Error()}
	case strings.Contains(msg, "quota"):
		return &llm.QuotaExceededError{Message: err.Error()}
	case strings.Contains(msg, "invalid request"):
		return &llm.InvalidRequestError{Message: err.Error()}
	case strings.Contains(msg, "api key"), strings.Contains(msg, "authentication"):
		return &llm.AuthenticationError{Message: err.Error()}
	}

	return err
}
