package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	gopenai "github.com/sashabaranov/go-openai"
)

const defaultModel = "gpt-4o-mini"

// Config contains OpenAI-compatible endpoint settings
type Config struct {
	APIKey  string
	BaseURL string // empty for api.openai.com
	Model   string
	Timeout time.Duration
}

// ChatRequest is a single-turn completion request
type ChatRequest struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
	JSON        bool // ask for a JSON object reply
}

// Client is an OpenAI-compatible chat client
type Client struct {
	client  *gopenai.Client
	model   string
	timeout time.Duration
}

// NewClient creates a new client
func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	config := gopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &Client{
		client:  gopenai.NewClientWithConfig(config),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
}

// Model returns the model used for completions
func (c *Client) Model() string {
	return c.model
}

// Chat sends a message and returns the response
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	chatReq := gopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []gopenai.ChatCompletionMessage{
			{Role: gopenai.ChatMessageRoleSystem, Content: req.System},
			{Role: gopenai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSON {
		chatReq.ResponseFormat = &gopenai.ChatCompletionResponseFormat{
			Type: gopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// IsPermanent reports whether err is a client-side API error that retrying cannot fix
func IsPermanent(err error) bool {
	var apiErr *gopenai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch {
	case apiErr.HTTPStatusCode == 429:
		return false
	case apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500:
		return true
	}
	return false
}
