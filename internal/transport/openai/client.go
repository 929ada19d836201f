package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"

	"github.com/kailas-cloud/hybridchat/internal/domain"
	"github.com/kailas-cloud/hybridchat/internal/domain/llm"
	"github.com/kailas-cloud/hybridchat/internal/domain/tool"
	"github.com/kailas-cloud/hybridchat/internal/metrics"
)

// Compile-time check: Client implements domain.Model.
var _ domain.Model = (*Client)(nil)

// Request kinds used as metric labels.
const (
	kindComplete = "complete"
	kindChat     = "chat"
)

// Client is a chat completion provider using the OpenAI-compatible API.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	provider    string
	logger      *zap.Logger
}

// Config holds the chat completion provider settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Provider    string
	Logger      *zap.Logger
}

// NewClient creates an OpenAI-compatible chat completion client.
func NewClient(cfg *Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// go-openai drops a zero temperature from the request (omitempty).
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	return &Client{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: temperature,
		provider:    cfg.Provider,
		logger:      logger,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Complete implements domain.Model with a single user message.
func (c *Client) Complete(ctx context.Context, prompt string) (llm.Completion, error) {
	return c.create(ctx, kindComplete, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
}

// Chat implements domain.Model with a full transcript and function-calling tools.
func (c *Client) Chat(ctx context.Context, messages []llm.Message, tools []llm.ToolSpec) (llm.Completion, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages:    toOpenAIMessages(messages),
	}
	if len(tools) > 0 {
		req.Tools = toOpenAITools(tools)
	}
	return c.create(ctx, kindChat, req)
}

func (c *Client) create(ctx context.Context, kind string, req openai.ChatCompletionRequest) (llm.Completion, error) {
	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(c.provider, c.model, kind, "error").Inc()
		metrics.LLMErrorsTotal.WithLabelValues(c.provider, c.model, "api_error").Inc()
		c.logger.Debug("Chat completion failed",
			zap.String("kind", kind),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return llm.Completion{}, parseAPIError(err)
	}

	if len(resp.Choices) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues(c.provider, c.model, kind, "error").Inc()
		metrics.LLMErrorsTotal.WithLabelValues(c.provider, c.model, "empty_response").Inc()
		return llm.Completion{}, fmt.Errorf("empty chat completion response: %w", domain.ErrModelInvocation)
	}

	metrics.LLMRequestsTotal.WithLabelValues(c.provider, c.model, kind, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(c.provider, c.model, kind).Observe(duration.Seconds())

	usage := llm.Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if usage.TotalTokens > 0 {
		metrics.LLMTokensTotal.WithLabelValues(c.provider, c.model, "prompt").Add(float64(usage.PromptTokens))
		metrics.LLMTokensTotal.WithLabelValues(c.provider, c.model, "completion").Add(float64(usage.CompletionTokens))
		metrics.LLMTokensTotal.WithLabelValues(c.provider, c.model, "total").Add(float64(usage.TotalTokens))
	}

	msg := resp.Choices[0].Message
	c.logger.Debug("Chat completion received",
		zap.String("kind", kind),
		zap.Duration("duration", duration),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("tool_calls", len(msg.ToolCalls)),
		zap.Int("total_tokens", usage.TotalTokens),
	)

	return llm.Completion{
		Content:   msg.Content,
		ToolCalls: fromOpenAIToolCalls(msg.ToolCalls),
		Usage:     usage,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func toOpenAIMessages(messages []llm.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		msg := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out[i] = msg
	}
	return out
}

// toOpenAITools exposes every tool as a function taking a single string "query".
func toOpenAITools(specs []llm.ToolSpec) []openai.Tool {
	out := make([]openai.Tool, len(specs))
	for i, s := range specs {
		out[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.FunctionName(s.Name),
				Description: s.Description,
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"query": {
							Type:        jsonschema.String,
							Description: "Input passed to the tool",
						},
					},
					Required: []string{"query"},
				},
			},
		}
	}
	return out
}

func fromOpenAIToolCalls(calls []openai.ToolCall) []llm.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]llm.ToolCall, len(calls))
	for i, tc := range calls {
		out[i] = llm.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}
	}
	return out
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrModelInvocation.
func parseAPIError(err error) error {
	wrap := domain.ErrModelInvocation

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("chat API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("chat API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("chat API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("chat request aborted: %w: %w", err, wrap)
	}

	return fmt.Errorf("chat request failed: %w: %w", err, wrap)
}

// extractDetail extracts the "detail" field from a JSON error body (OpenAI-compatible gateways).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
