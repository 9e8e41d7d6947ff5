package benchmark

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

// DefaultBaseURL is the OpenRouter OpenAI-compatible endpoint
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// TokenUsage counts tokens for one completion
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a model reply. JSON is nil when no JSON value could be
// recovered from Raw.
type Response struct {
	JSON         any
	Raw          string
	Usage        TokenUsage
	ResponseTime time.Duration
}

// ChatClient sends a single-turn prompt to a model
type ChatClient interface {
	SendMessage(ctx context.Context, model, prompt string, temperature float32, maxTokens int) (*Response, error)
}

// ClientOptions configures an OpenRouterClient
type ClientOptions struct {
	APIKey  string
	BaseURL string
	// Optional attribution headers
	SiteURL  string
	SiteName string
}

// OpenRouterClient talks to OpenRouter through the OpenAI protocol
type OpenRouterClient struct {
	client     *openai.Client
	maxRetries int
	retryDelay time.Duration
}

// NewOpenRouterClient creates a client; an empty BaseURL selects OpenRouter
func NewOpenRouterClient(opts ClientOptions) *OpenRouterClient {
	cfg := openai.DefaultConfig(opts.APIKey)
	cfg.BaseURL = DefaultBaseURL
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	headers := map[string]string{}
	if opts.SiteURL != "" {
		headers["HTTP-Referer"] = opts.SiteURL
	}
	if opts.SiteName != "" {
		headers["X-Title"] = opts.SiteName
	}
	cfg.HTTPClient = &http.Client{
		Timeout:   5 * time.Minute,
		Transport: &headerTransport{base: http.DefaultTransport, headers: headers},
	}

	return &OpenRouterClient{
		client:     openai.NewClientWithConfig(cfg),
		maxRetries: 2,
		retryDelay: time.Second,
	}
}

// SendMessage sends prompt as a single user message, retrying failed calls.
// The error is returned only once every attempt has failed.
func (c *OpenRouterClient) SendMessage(ctx context.Context, model, prompt string, temperature float32, maxTokens int) (*Response, error) {
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
	}
	if maxTokens > 0 {
		req.MaxTokens = maxTokens
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		start := time.Now()
		resp, err := c.client.CreateChatCompletion(ctx, req)
		elapsed := time.Since(start)
		if err == nil && len(resp.Choices) == 0 {
			err = errors.New("no choices returned")
		}
		if err != nil {
			lastErr = err
			log.Warn().Err(err).Str("model", model).
				Int("attempt", attempt+1).Int("max_attempts", c.maxRetries+1).
				Msg("API call failed")
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		raw := resp.Choices[0].Message.Content
		return &Response{
			JSON: ExtractJSON(raw),
			Raw:  raw,
			Usage: TokenUsage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				TotalTokens:      resp.Usage.TotalTokens,
			},
			ResponseTime: elapsed,
		}, nil
	}

	return nil, fmt.Errorf("API communication failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// headerTransport adds fixed headers to every request
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) == 0 {
		return t.base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}
