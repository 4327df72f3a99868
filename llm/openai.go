// =============================================================================
// OpenAI-Compatible Chat Client
// =============================================================================
// Non-streaming /v1/chat/completions client used by URL templating.
// Temperature is always sent, pinned to zero unless configured otherwise.
// =============================================================================

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/graphground/internal/tlsutil"
)

// ChatConfig holds the configuration for an OpenAI-compatible chat endpoint.
type ChatConfig struct {
	// ProviderName is used in errors and logs. Defaults to "openai".
	ProviderName string

	// APIKey is the bearer token.
	APIKey string

	// BaseURL is the API root (e.g., "https://api.openai.com").
	BaseURL string

	// Model is the chat model name.
	Model string

	// Temperature is sent verbatim on every request.
	Temperature float32

	// Timeout is the HTTP client timeout. Defaults to 60s if zero.
	Timeout time.Duration

	// EndpointPath defaults to "/v1/chat/completions".
	EndpointPath string
}

// ChatClient implements ChatModel against an OpenAI-compatible API.
type ChatClient struct {
	cfg    ChatConfig
	client *http.Client
	logger *zap.Logger
}

// NewChatClient creates a new chat client with the given config.
func NewChatClient(cfg ChatConfig, logger *zap.Logger) *ChatClient {
	if cfg.ProviderName == "" {
		cfg.ProviderName = "openai"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/v1/chat/completions"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatClient{
		cfg:    cfg,
		client: tlsutil.SecureHTTPClient(cfg.Timeout),
		logger: logger.With(zap.String("component", "chat_client"), zap.String("provider", cfg.ProviderName)),
	}
}

// Name returns the provider name.
func (c *ChatClient) Name() string { return c.cfg.ProviderName }

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int     `json:"index"`
		FinishReason string  `json:"finish_reason"`
		Message      Message `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete performs a non-streaming chat completion and returns the first choice's content.
func (c *ChatClient) Complete(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", &Error{
			Code: ErrInvalidRequest, Message: "no messages",
			HTTPStatus: http.StatusBadRequest, Provider: c.Name(),
		}
	}

	payload, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + c.cfg.EndpointPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", &Error{
			Code: ErrUpstreamError, Message: err.Error(),
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: c.Name(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := ReadErrorMessage(resp.Body)
		return "", MapHTTPError(resp.StatusCode, msg, c.Name())
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &Error{
			Code: ErrUpstreamError, Message: err.Error(),
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: c.Name(),
		}
	}
	if len(out.Choices) == 0 {
		return "", &Error{
			Code: ErrEmptyCompletion, Message: "response contained no choices",
			HTTPStatus: resp.StatusCode, Provider: c.Name(),
		}
	}

	c.logger.Debug("chat completion",
		zap.String("model", out.Model),
		zap.Int("total_tokens", out.Usage.TotalTokens),
		zap.Duration("latency", time.Since(start)))

	return out.Choices[0].Message.Content, nil
}
