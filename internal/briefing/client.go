package briefing

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/oakmund/fleetboard/pkg/logger"
)

// OpenAIClient wraps the OpenAI chat completions API
type OpenAIClient struct {
	client openai.Client
	logger *logger.Logger
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(apiKey string, log *logger.Logger) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		logger: log.Named("openai-client"),
	}
}

// GenerateBriefing sends the fleet context to the model and returns the
// generated summary text.
func (c *OpenAIClient) GenerateBriefing(ctx context.Context, systemPrompt, userInput, model string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userInput),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	content := resp.Choices[0].Message.Content
	c.logger.Debug("Generated briefing",
		logger.String("model", model),
		logger.Int("content_length", len(content)))
	return content, nil
}
