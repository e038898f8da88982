package acpclient

import (
	"context"
	"iter"

	"github.com/wagiedev/acp-client-go/internal/client"
)

// clientWrapper wraps the internal client to adapt it to the public interface.
type clientWrapper struct {
	impl *client.Client
}

// Compile-time check that *clientWrapper implements the Client interface.
var _ Client = (*clientWrapper)(nil)

// newClientImpl creates the internal client implementation.
func newClientImpl(options *Options) Client {
	return &clientWrapper{impl: client.New(options)}
}

// Connect starts the agent and creates a session.
func (c *clientWrapper) Connect(ctx context.Context) error {
	return c.impl.Connect(ctx)
}

// SendStream starts a turn and returns its response text.
func (c *clientWrapper) SendStream(ctx context.Context, req *PromptRequest) (iter.Seq2[string, error], error) {
	return c.impl.SendStream(ctx, req)
}

// Cancel asks the agent to stop the active turn.
func (c *clientWrapper) Cancel(ctx context.Context) error {
	return c.impl.Cancel(ctx)
}

// AvailableModels returns the session's model catalog.
func (c *clientWrapper) AvailableModels() []Model {
	return c.impl.AvailableModels()
}

// AvailableModes returns the session's mode catalog.
func (c *clientWrapper) AvailableModes() []Mode {
	return c.impl.AvailableModes()
}

// SelectModel switches the session's model.
func (c *clientWrapper) SelectModel(ctx context.Context, id string) error {
	return c.impl.SelectModel(ctx, id)
}

// SelectMode switches the session's mode.
func (c *clientWrapper) SelectMode(ctx context.Context, id string) error {
	return c.impl.SelectMode(ctx, id)
}

// State returns the session lifecycle state.
func (c *clientWrapper) State() State {
	return c.impl.State()
}

// SessionID returns the active session id.
func (c *clientWrapper) SessionID() string {
	return c.impl.SessionID()
}

// SelectedModel returns the id of the model in effect.
func (c *clientWrapper) SelectedModel() string {
	return c.impl.SelectedModel()
}

// SelectedMode returns the id of the mode in effect.
func (c *clientWrapper) SelectedMode() string {
	return c.impl.SelectedMode()
}

// ToolCalls returns the tool calls of the current or last turn.
func (c *clientWrapper) ToolCalls() []ToolCall {
	return c.impl.ToolCalls()
}

// ServerInfo returns the agent's initialize result.
func (c *clientWrapper) ServerInfo() map[string]any {
	return c.impl.ServerInfo()
}

// Close stops the agent.
func (c *clientWrapper) Close() error {
	return c.impl.Close()
}
