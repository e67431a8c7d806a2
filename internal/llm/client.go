// Package llm wraps the OpenAI-compatible chat endpoint the assistant
// talks to.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Aliases so callers do not import the vendor package directly.
type (
	Message  = openai.ChatCompletionMessage
	Tool     = openai.Tool
	ToolCall = openai.ToolCall
)

const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
	RoleTool      = openai.ChatMessageRoleTool
)

// ErrNoChoices means the endpoint returned an empty choice list.
var ErrNoChoices = errors.New("model returned no choices")

// Client is a thin wrapper over an OpenAI-compatible endpoint. Every call is
// bounded by the configured timeout so a stalled model cannot hang a chat
// session indefinitely.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// NewClient builds a client for the given endpoint. baseURL may be empty for
// the default OpenAI endpoint.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{api: openai.NewClientWithConfig(cfg), model: model, timeout: timeout}
}

// Chat sends one chat turn with the tool schema attached and returns the
// assistant message, which may carry tool calls instead of content.
func (c *Client) Chat(ctx context.Context, messages []Message, tools []Tool) (Message, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
		Tools:    tools,
	})
	if err != nil {
		return Message{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Message{}, ErrNoChoices
	}
	return resp.Choices[0].Message, nil
}

// Complete sends a single system+user exchange with no tools and returns the
// raw text. The chart sandbox uses this for code synthesis.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	msg, err := c.Chat(ctx, []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: user},
	}, nil)
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}
