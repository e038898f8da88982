package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/wagiedev/acp-client-go/internal/models"
)

const anthropicMaxTokens = 4096

// AnthropicProvider answers prompts with the Anthropic Messages API.
type AnthropicProvider struct {
	backend

	client anthropic.Client
}

// NewAnthropicProvider creates a provider. The API key is read from
// ANTHROPIC_API_KEY unless opts supplies one.
func NewAnthropicProvider(log *slog.Logger, preferredModel string, opts ...option.RequestOption) *AnthropicProvider {
	p := &AnthropicProvider{client: anthropic.NewClient(opts...)}
	p.init(log, "anthropic", models.Anthropic(), preferredModel, p.send)

	return p
}

func (p *AnthropicProvider) send(ctx context.Context, model, text string) (string, error) {
	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	var out strings.Builder

	for _, block := range resp.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			out.WriteString(tb.Text)
		}
	}

	return out.String(), nil
}
