package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Defaults for a local OpenAI-compatible inference server (e.g. vLLM).
const (
	DefaultOpenAIBaseURL = "http://localhost:8000/v1"
	DefaultOpenAIAPIKey  = "EMPTY"
)

// OpenAIConfig contains configuration for creating an OpenAIClient.
type OpenAIConfig struct {
	// BaseURL is the API root including the version segment.
	BaseURL string
	// APIKey is sent as a bearer token. If empty, uses OPENAI_API_KEY, then "EMPTY".
	APIKey string
	// Model is the model ID. If empty, the first model listed by the server is used.
	Model string
	// Timeout bounds a single HTTP call. Zero means no timeout.
	Timeout time.Duration
}

// OpenAIClient talks to any OpenAI-compatible chat-completion endpoint.
type OpenAIClient struct {
	inner *openai.Client
	model string

	resolveOnce sync.Once
	resolveErr  error
}

// NewOpenAIClient creates a client for an OpenAI-compatible server.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		apiKey = DefaultOpenAIAPIKey
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	clientCfg := openai.DefaultConfig(apiKey)
	clientCfg.BaseURL = baseURL
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &OpenAIClient{
		inner: openai.NewClientWithConfig(clientCfg),
		model: cfg.Model,
	}, nil
}

// Model returns the configured model ID, which may be empty until ResolveModel runs.
func (c *OpenAIClient) Model() string {
	return c.model
}

// ResolveModel picks the first model the server lists when none was configured.
// It runs at most once; later calls return the first outcome.
func (c *OpenAIClient) ResolveModel(ctx context.Context) (string, error) {
	c.resolveOnce.Do(func() {
		if c.model != "" {
			return
		}
		list, err := c.inner.ListModels(ctx)
		if err != nil {
			c.resolveErr = commErr("openai", fmt.Errorf("list models: %w", err))
			return
		}
		if len(list.Models) == 0 {
			c.resolveErr = commErr("openai", errors.New("server lists no models"))
			return
		}
		c.model = list.Models[0].ID
	})
	return c.model, c.resolveErr
}

// Complete sends a chat completion request.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (Response, error) {
	model := req.Model
	if model == "" {
		resolved, err := c.ResolveModel(ctx)
		if err != nil {
			return Response{}, err
		}
		model = resolved
	}

	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		}
	}

	resp, err := c.inner.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return Response{}, commErr("openai", err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, commErr("openai", ErrNoChoices)
	}

	return Response{
		Content:      resp.Choices[0].Message.Content,
		InputTokens:  int64(resp.Usage.PromptTokens),
		OutputTokens: int64(resp.Usage.CompletionTokens),
	}, nil
}
