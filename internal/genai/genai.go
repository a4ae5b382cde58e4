// Package genai provides GenAI-enhanced operations using the OpenAI API.
//
// Network failure is an expected, recoverable condition for every call in
// this package: callers fall back to deterministic behavior and must never
// surface a GenAI error to the user.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ClientInterface defines the GenAI operations the engine depends on.
// It exists so flows can inject mock clients in tests.
type ClientInterface interface {
	// GeneratePromptWithContext generates a completion from a system and user prompt.
	GeneratePromptWithContext(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// GenerateWithMessages generates a completion from a full message history.
	GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error)
}

// Client wraps the OpenAI chat completion service.
type Client struct {
	client openai.Client
	model  openai.ChatModel
}

// NewClient initializes a GenAI client using the OPENAI_API_KEY environment variable.
func NewClient() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	return NewClientWithKey(apiKey), nil
}

// NewClientWithKey initializes a GenAI client with an explicit API key.
func NewClientWithKey(apiKey string) *Client {
	slog.Debug("genai.NewClientWithKey: creating OpenAI client")
	return &Client{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  openai.ChatModelGPT4oMini,
	}
}

// GeneratePromptWithContext generates a completion from a system and user prompt.
func (c *Client) GeneratePromptWithContext(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(userPrompt),
	}
	return c.GenerateWithMessages(ctx, messages)
}

// GenerateWithMessages generates a completion from a full message history.
func (c *Client) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	slog.Debug("genai.GenerateWithMessages: requesting completion", "messageCount", len(messages), "model", c.model)
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		slog.Error("genai.GenerateWithMessages: completion request failed", "error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		slog.Error("genai.GenerateWithMessages: no choices returned")
		return "", fmt.Errorf("no choices returned")
	}
	content := resp.Choices[0].Message.Content
	slog.Debug("genai.GenerateWithMessages: completion received", "responseLength", len(content))
	return content, nil
}
