package acpclient

import "github.com/wagiedev/acp-client-go/internal/errors"

// Re-export error types from internal package

// ACPError is the base interface for all client errors.
type ACPError = errors.ACPError

// BinaryNotFoundError indicates the agent executable was not found.
type BinaryNotFoundError = errors.BinaryNotFoundError

// LaunchError indicates the OS refused to start the agent process.
type LaunchError = errors.LaunchError

// ProcessTerminatedError indicates the agent exited with work outstanding.
type ProcessTerminatedError = errors.ProcessTerminatedError

// ProtocolError is an error response from the agent.
type ProtocolError = errors.ProtocolError

// FrameError indicates the agent wrote a malformed frame.
type FrameError = errors.FrameError

// InitializeError indicates the handshake or session creation failed.
type InitializeError = errors.InitializeError

// UpdateParseError indicates a session update could not be parsed.
type UpdateParseError = errors.UpdateParseError

// Re-export sentinel errors from internal package.
var (
	// ErrNotRunning indicates the agent process is not running.
	ErrNotRunning = errors.ErrNotRunning

	// ErrNoActiveSession indicates no session has been created.
	ErrNoActiveSession = errors.ErrNoActiveSession

	// ErrPromptInFlight indicates a turn is already active.
	ErrPromptInFlight = errors.ErrPromptInFlight

	// ErrAlreadyConnected indicates Connect was called on a live session.
	ErrAlreadyConnected = errors.ErrAlreadyConnected

	// ErrClientClosed indicates the client was closed during an operation.
	ErrClientClosed = errors.ErrClientClosed

	// ErrRequestTimeout indicates a request timed out.
	ErrRequestTimeout = errors.ErrRequestTimeout

	// ErrEmptyPrompt indicates a prompt request had no content.
	ErrEmptyPrompt = errors.ErrEmptyPrompt

	// ErrStreamConsumed indicates a turn's stream was iterated twice.
	ErrStreamConsumed = errors.ErrStreamConsumed

	// ErrUnknownModel indicates the model is not in the catalog.
	ErrUnknownModel = errors.ErrUnknownModel

	// ErrUnknownMode indicates the mode is not in the catalog.
	ErrUnknownMode = errors.ErrUnknownMode
)
