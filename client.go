package acpclient

import (
	"context"
	"iter"
)

// Provider is a model backend that answers prompts with a stream of text.
//
// The ACP Client implements Provider, as do the HTTP providers returned by
// NewAnthropicProvider and NewOpenAIProvider.
type Provider interface {
	// SendStream starts a turn and returns its response text in chunks.
	// The sequence ends after the last chunk, or yields the turn's error.
	// Returns ErrPromptInFlight if a turn is already active and
	// ErrEmptyPrompt if req produces no content.
	SendStream(ctx context.Context, req *PromptRequest) (iter.Seq2[string, error], error)

	// AvailableModels returns the models the backend offers.
	AvailableModels() []Model

	// AvailableModes returns the modes the backend offers.
	AvailableModes() []Mode

	// SelectModel switches the model used by later turns.
	// Returns ErrUnknownModel if id is not offered.
	SelectModel(ctx context.Context, id string) error

	// SelectMode switches the mode used by later turns.
	// Returns ErrUnknownMode if id is not offered.
	SelectMode(ctx context.Context, id string) error
}

// Client drives an ACP agent subprocess through a session.
//
// A Client starts the agent lazily on the first SendStream, or eagerly with
// Connect. Only one turn runs at a time, and models and modes cannot be
// changed while a turn is active.
//
// Lifecycle: Close stops the agent. A closed Client can be connected again
// and starts a fresh agent and session.
//
// Example usage:
//
//	client := acpclient.NewClient(
//	    acpclient.WithLogger(slog.Default()),
//	    acpclient.WithModel("sonnet"),
//	)
//	defer client.Close()
//
//	stream, err := client.SendStream(ctx, acpclient.Text("Explain this repo"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for chunk, err := range stream {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Print(chunk)
//	}
type Client interface {
	Provider

	// Connect starts the agent, performs the initialize handshake, and
	// creates a session. Returns BinaryNotFoundError or LaunchError if the
	// agent cannot be started and InitializeError if the handshake or
	// session creation fails.
	Connect(ctx context.Context) error

	// Cancel asks the agent to stop the active turn. The turn's stream still
	// ends normally once the agent reports completion.
	Cancel(ctx context.Context) error

	// State returns the session lifecycle state.
	State() State

	// SessionID returns the active session id, or "".
	SessionID() string

	// SelectedModel returns the id of the model in effect.
	SelectedModel() string

	// SelectedMode returns the id of the mode in effect.
	SelectedMode() string

	// ToolCalls returns the tool calls seen during the current or last turn.
	ToolCalls() []ToolCall

	// ServerInfo returns the agent's initialize result, or nil before
	// Connect.
	ServerInfo() map[string]any

	// Close stops the agent and fails an active turn with ErrClientClosed.
	Close() error
}

// NewClient creates a new ACP client. Nothing is started until Connect or
// the first SendStream.
func NewClient(opts ...Option) Client {
	return newClientImpl(applyOptions(opts))
}
