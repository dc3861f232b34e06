package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"NewsDigest/internal/config"
	"NewsDigest/internal/ports"
)

// Client adapts any OpenAI-compatible chat endpoint to ports.Inference. A
// local Ollama server exposes the same surface under /v1, so both hosted and
// self-hosted inference work through one adapter.
type Client struct {
	client *openai.Client
	model  string
}

var _ ports.Inference = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.InferenceConfig) *Client {
	var opts []option.RequestOption
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	client := openai.NewClient(opts...)
	return &Client{client: &client, model: cfg.Model}
}

// Infer sends the prompt as a single user message and returns the completion
// text. With expectJSON set, markdown fences and surrounding prose are
// stripped so callers can unmarshal the payload directly; validating the
// result stays their job.
func (c *Client) Infer(ctx context.Context, prompt string, expectJSON bool) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}

	content := resp.Choices[0].Message.Content
	if expectJSON {
		content = cleanJSONResponse(content)
	}
	return content, nil
}

// cleanJSONResponse trims code fences and any prose around the outermost
// JSON value. Some models wrap structured output despite instructions.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	objStart := strings.Index(content, "{")
	arrStart := strings.Index(content, "[")
	if arrStart >= 0 && (objStart < 0 || arrStart < objStart) {
		if end := strings.LastIndex(content, "]"); end > arrStart {
			return content[arrStart : end+1]
		}
	}
	if objStart >= 0 {
		if end := strings.LastIndex(content, "}"); end > objStart {
			return content[objStart : end+1]
		}
	}
	return content
}
