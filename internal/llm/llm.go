// Package llm asks a language model to group the day's items into
// themed sections. The model is advisory: callers fall back to their own
// deterministic layout whenever the call fails.
package llm

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = `You group a personal daily briefing. You receive a plain list of
tasks and calendar events, one per line. Group related items under short
thematic headings (at most five), keep every input line verbatim under
exactly one heading, and output plain text only: a heading line starting
with "## " followed by its items. Do not add, drop or reword items.`

// Grouper produces a grouped rendering of digest lines.
type Grouper interface {
	Group(ctx context.Context, lines []string) (string, error)
}

// Client calls the OpenAI chat-completion API.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient builds a Client. An empty model selects gpt-4o-mini.
func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Client{api: openai.NewClient(apiKey), model: model}
}

// Group sends the digest lines and returns the model's grouped text.
func (c *Client) Group(ctx context.Context, lines []string) (string, error) {
	if len(lines) == 0 {
		return "", errors.New("llm: nothing to group")
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: strings.Join(lines, "\n")},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm: empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
