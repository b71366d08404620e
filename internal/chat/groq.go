// Package chat talks to an OpenAI-compatible chat-completion endpoint,
// Groq by default.
package chat

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const DefaultTemperature = 0.7

var ErrEmptyResponse = errors.New("empty completion")

type Client struct {
	api         openai.Client
	model       string
	temperature float64
	timeout     time.Duration
}

type config struct {
	baseURL     string
	httpClient  *http.Client
	timeout     time.Duration
	temperature float64
}

type Option func(*config)

func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) {
		c.httpClient = hc
	}
}

// WithTimeout bounds every Complete call. Zero leaves calls unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

func WithTemperature(t float64) Option {
	return func(c *config) {
		c.temperature = t
	}
}

func New(apiKey, model string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("chat: apiKey must not be empty")
	}
	if model == "" {
		return nil, errors.New("chat: model must not be empty")
	}

	cfg := &config{temperature: DefaultTemperature}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(cfg.httpClient))
	}

	return &Client{
		api:         openai.NewClient(reqOpts...),
		model:       model,
		temperature: cfg.temperature,
		timeout:     cfg.timeout,
	}, nil
}

func (c *Client) Model() string { return c.model }

// Complete sends one system and one user message and returns the first
// choice's text with surrounding whitespace removed.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Model:       openai.ChatModel(c.model),
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices in response")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}

	log.Debug("Completed", "model", c.model, "tokens", resp.Usage.TotalTokens)

	return content, nil
}
