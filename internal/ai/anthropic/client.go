// Package anthropic implements ai.Completer on the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/spigell/interview-agent/internal/ai"
	"github.com/spigell/interview-agent/internal/logger"
)

const (
	Provider = "anthropic"

	defaultModel       = "claude-sonnet-4-5"
	defaultTemperature = float32(0.7)
	maxTokens          = 2048
)

// Config selects the endpoint, model and retry behaviour of a Client.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxRetries  int
	Timeout     time.Duration
	Temperature float32
}

// Client wraps the Anthropic SDK client.
type Client struct {
	client      anthropic.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// New creates a Client. MaxRetries counts attempts, so the SDK gets one less.
func New(cfg Config, log *zap.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("anthropic api key is required")
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

	return &Client{
		client:      anthropic.NewClient(opts...),
		model:       model,
		temperature: temperature,
		logger:      logger.WithCommonFields(log, Provider, model),
	}, nil
}

// Complete implements ai.Completer. Consecutive turns with the same role are
// merged because the Messages API requires strict alternation.
func (c *Client) Complete(ctx context.Context, req ai.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", ai.NewError(Provider, 0, err)
	}

	temperature := req.Temperature
	if temperature <= 0 {
		temperature = c.temperature
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   maxTokens,
		Messages:    toMessages(req.Messages),
		Temperature: anthropic.Float(float64(temperature)),
	}

	if system := strings.TrimSpace(req.System); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", ai.NewError(Provider, apiErr.StatusCode, err)
		}
		return "", ai.NewError(Provider, 0, fmt.Errorf("messages: %w", err))
	}

	if resp == nil {
		return "", ai.NewError(Provider, 0, ai.ErrEmptyResponse)
	}

	var builder strings.Builder
	for i := range resp.Content {
		block := &resp.Content[i]
		if block.Type != "text" {
			continue
		}
		builder.WriteString(block.AsText().Text)
	}

	text := strings.TrimSpace(builder.String())
	if text == "" {
		return "", ai.NewError(Provider, 0, ai.ErrEmptyResponse)
	}

	c.logger.Debug("message finished",
		zap.String("stop_reason", string(resp.StopReason)),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
	)

	return text, nil
}

func (c *Client) Provider() string { return Provider }

func (c *Client) Model() string { return c.model }

func toMessages(messages []ai.Message) []anthropic.MessageParam {
	type turn struct {
		role  ai.Role
		parts []string
	}

	var turns []turn
	for _, m := range messages {
		role := ai.RoleUser
		if m.Role == ai.RoleAssistant {
			role = ai.RoleAssistant
		}
		if n := len(turns); n > 0 && turns[n-1].role == role {
			turns[n-1].parts = append(turns[n-1].parts, m.Content)
			continue
		}
		turns = append(turns, turn{role: role, parts: []string{m.Content}})
	}

	out := make([]anthropic.MessageParam, 0, len(turns))
	for _, t := range turns {
		block := anthropic.NewTextBlock(strings.Join(t.parts, "\n\n"))
		if t.role == ai.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(block))
			continue
		}
		out = append(out, anthropic.NewUserMessage(block))
	}
	return out
}
