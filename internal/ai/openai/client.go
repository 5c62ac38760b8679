// Package openai implements ai.Completer for OpenAI-compatible chat completion
// endpoints. With a base URL it talks to Groq, Ollama or any compatible server.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/spigell/interview-agent/internal/ai"
	"github.com/spigell/interview-agent/internal/logger"
)

const (
	Provider = "openai"

	// GroqBaseURL is the OpenAI-compatible endpoint of Groq.
	GroqBaseURL = "https://api.groq.com/openai/v1"

	defaultModel       = "llama-3.3-70b-versatile"
	defaultTemperature = float32(0.7)
)

// Config selects the endpoint, model and retry behaviour of a Client.
type Config struct {
	// Provider names the backend in errors, logs and metrics, e.g. "groq".
	// Empty means Provider.
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	MaxRetries  int
	Timeout     time.Duration
	Temperature float32
}

// Client wraps the official OpenAI Go client.
type Client struct {
	client      openai.Client
	provider    string
	model       string
	temperature float32
	logger      *zap.Logger
}

// New creates a Client. MaxRetries counts attempts, so the SDK gets one less.
func New(cfg Config, log *zap.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}

	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}

	retries := cfg.MaxRetries - 1
	if retries < 0 {
		retries = 0
	}
	opts = append(opts, option.WithMaxRetries(retries))

	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}

	provider := strings.TrimSpace(cfg.Provider)
	if provider == "" {
		provider = Provider
	}

	return &Client{
		client:      openai.NewClient(opts...),
		provider:    provider,
		model:       model,
		temperature: temperature,
		logger:      logger.WithCommonFields(log, provider, model),
	}, nil
}

// Complete implements ai.Completer using the chat completions API.
func (c *Client) Complete(ctx context.Context, req ai.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", ai.NewError(c.provider, 0, err)
	}

	temperature := req.Temperature
	if temperature <= 0 {
		temperature = c.temperature
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    toMessages(req),
		Temperature: openai.Float(float64(temperature)),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", ai.NewError(c.provider, apiErr.StatusCode, err)
		}
		return "", ai.NewError(c.provider, 0, fmt.Errorf("chat completion: %w", err))
	}

	if resp == nil || len(resp.Choices) == 0 {
		return "", ai.NewError(c.provider, 0, ai.ErrEmptyResponse)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ai.NewError(c.provider, 0, ai.ErrEmptyResponse)
	}

	c.logger.Debug("chat completion finished",
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int64("total_tokens", resp.Usage.TotalTokens),
	)

	return text, nil
}

func (c *Client) Provider() string { return c.provider }

func (c *Client) Model() string { return c.model }

func toMessages(req ai.Request) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if system := strings.TrimSpace(req.System); system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}

	for _, m := range req.Messages {
		if m.Role == ai.RoleAssistant {
			messages = append(messages, openai.AssistantMessage(m.Content))
			continue
		}
		messages = append(messages, openai.UserMessage(m.Content))
	}

	return messages
}
