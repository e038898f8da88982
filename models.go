package acpclient

import (
	"log/slog"

	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaioption "github.com/openai/openai-go/v2/option"

	"github.com/wagiedev/acp-client-go/internal/llm"
	"github.com/wagiedev/acp-client-go/internal/models"
)

// Re-export model types from internal/models.

// Model is one entry of a model catalog.
type Model = models.Model

// Mode is one entry of a mode catalog.
type Mode = models.Mode

// AnthropicModels returns the catalog offered by the Anthropic provider.
func AnthropicModels() []Model {
	return models.Anthropic()
}

// OpenAIModels returns the catalog offered by the OpenAI provider.
func OpenAIModels() []Model {
	return models.OpenAI()
}

// Compile-time checks that the HTTP providers implement Provider.
var (
	_ Provider = (*llm.AnthropicProvider)(nil)
	_ Provider = (*llm.OpenAIProvider)(nil)
)

// NewAnthropicProvider returns a Provider backed by the Anthropic Messages
// API. The API key is read from ANTHROPIC_API_KEY unless opts supplies one.
// A nil logger disables logging.
func NewAnthropicProvider(log *slog.Logger, model string, opts ...anthropicoption.RequestOption) Provider {
	return llm.NewAnthropicProvider(log, model, opts...)
}

// NewOpenAIProvider returns a Provider backed by the OpenAI Chat Completions
// API. The API key is read from OPENAI_API_KEY unless opts supplies one.
// A nil logger disables logging.
func NewOpenAIProvider(log *slog.Logger, model string, opts ...openaioption.RequestOption) Provider {
	return llm.NewOpenAIProvider(log, model, opts...)
}
