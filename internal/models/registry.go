package models

import "slices"

// anthropicModels is the static catalog offered by the Anthropic HTTP provider.
// Newest models come first.
var anthropicModels = []Model{
	{
		ID:          "claude-opus-4-6",
		Name:        "Claude Opus 4.6",
		Description: "Most capable model for complex reasoning and long tasks",
	},
	{
		ID:          "claude-sonnet-4-6",
		Name:        "Claude Sonnet 4.6",
		Description: "Balanced speed and capability",
	},
	{
		ID:          "claude-haiku-4-5",
		Name:        "Claude Haiku 4.5",
		Description: "Fastest model for lightweight requests",
	},
	{
		ID:   "claude-opus-4-5",
		Name: "Claude Opus 4.5",
	},
	{
		ID:   "claude-sonnet-4-5",
		Name: "Claude Sonnet 4.5",
	},
}

// openAIModels is the static catalog offered by the OpenAI HTTP provider.
var openAIModels = []Model{
	{
		ID:          "gpt-4.1",
		Name:        "GPT-4.1",
		Description: "Flagship general purpose chat model",
	},
	{
		ID:          "gpt-4.1-mini",
		Name:        "GPT-4.1 mini",
		Description: "Smaller, faster GPT-4.1",
	},
	{
		ID:   "gpt-4o",
		Name: "GPT-4o",
	},
	{
		ID:   "o4-mini",
		Name: "o4-mini",
	},
}

// Anthropic returns a copy of the Anthropic catalog.
func Anthropic() []Model {
	return slices.Clone(anthropicModels)
}

// OpenAI returns a copy of the OpenAI catalog.
func OpenAI() []Model {
	return slices.Clone(openAIModels)
}
