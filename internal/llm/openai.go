package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/wagiedev/acp-client-go/internal/models"
)

// OpenAIProvider answers prompts with the OpenAI Chat Completions API.
type OpenAIProvider struct {
	backend

	client openai.Client
}

// NewOpenAIProvider creates a provider. The API key and base URL are read
// from OPENAI_API_KEY and OPENAI_BASE_URL unless opts supplies them.
func NewOpenAIProvider(log *slog.Logger, preferredModel string, opts ...option.RequestOption) *OpenAIProvider {
	p := &OpenAIProvider{client: openai.NewClient(opts...)}
	p.init(log, "openai", models.OpenAI(), preferredModel, p.send)

	return p
}

func (p *OpenAIProvider) send(ctx context.Context, model, text string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(text),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}

	return resp.Choices[0].Message.Content, nil
}
