// Package config provides configuration types for the ACP client.
package config

import "context"

// Transport is the byte-level link to an agent process.
// Implement this to provide custom transports for testing, mocking,
// or alternative communication methods.
//
// The default implementation is subprocess.Supervisor which spawns the agent.
// Custom transports can be injected via Options.Transport.
type Transport interface {
	// Start launches the agent and prepares the pipes.
	Start(ctx context.Context) error

	// Chunks yields raw stdout bytes in arrival order. The channel is closed
	// when stdout reaches EOF.
	Chunks() <-chan []byte

	// Write sends bytes to the agent's stdin. It returns ErrNotRunning once
	// the agent has exited. It must be safe for concurrent use.
	Write(ctx context.Context, data []byte) error

	// Done is closed once the agent has exited and stdout has been drained.
	Done() <-chan struct{}

	// Err reports why the agent exited. It is nil before Done is closed
	// and after an intentional Terminate.
	Err() error

	// Terminate asks the agent to exit without waiting for it.
	// It's safe to call Terminate multiple times.
	Terminate() error
}
