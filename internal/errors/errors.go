package errors

import (
	"errors"
	"fmt"
)

// ACPError is the base interface for all client errors.
type ACPError interface {
	error
	IsACPError() bool
}

// Compile-time verification that all error types implement ACPError.
var (
	_ ACPError = (*BinaryNotFoundError)(nil)
	_ ACPError = (*LaunchError)(nil)
	_ ACPError = (*ProcessTerminatedError)(nil)
	_ ACPError = (*ProtocolError)(nil)
	_ ACPError = (*FrameError)(nil)
	_ ACPError = (*InitializeError)(nil)
	_ ACPError = (*UpdateParseError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrNotRunning indicates a write was attempted after the agent process exited.
	ErrNotRunning = errors.New("agent process not running")

	// ErrNoActiveSession indicates a prompt or selection was attempted before
	// a session was created.
	ErrNoActiveSession = errors.New("no active session")

	// ErrPromptInFlight indicates a prompt turn is still active.
	ErrPromptInFlight = errors.New("prompt turn already in flight")

	// ErrAlreadyConnected indicates Connect was called on a live session.
	ErrAlreadyConnected = errors.New("client already connected")

	// ErrClientClosed indicates the client was closed while an operation was pending.
	ErrClientClosed = errors.New("client closed")

	// ErrRequestTimeout indicates a request timed out.
	ErrRequestTimeout = errors.New("request timeout")

	// ErrControllerStopped indicates the request controller has stopped.
	ErrControllerStopped = errors.New("request controller stopped")

	// ErrEmptyPrompt indicates a prompt request produced no content blocks.
	ErrEmptyPrompt = errors.New("prompt has no content")

	// ErrStreamConsumed indicates a turn's chunk sequence was iterated twice.
	ErrStreamConsumed = errors.New("stream already consumed")

	// ErrUnknownModel indicates the requested model is not in the session catalog.
	ErrUnknownModel = errors.New("unknown model")

	// ErrUnknownMode indicates the requested mode is not in the session catalog.
	ErrUnknownMode = errors.New("unknown mode")

	// ErrUnknownUpdateKind indicates the session update kind is not recognized.
	// Callers should skip these updates rather than treating them as fatal.
	ErrUnknownUpdateKind = errors.New("unknown session update kind")
)

// BinaryNotFoundError indicates the agent executable does not exist.
type BinaryNotFoundError struct {
	SearchedPaths []string
}

func (e *BinaryNotFoundError) Error() string {
	return fmt.Sprintf("agent binary not found in: %v", e.SearchedPaths)
}

// IsACPError implements ACPError.
func (e *BinaryNotFoundError) IsACPError() bool { return true }

// LaunchError indicates the OS refused to start the agent process.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch agent %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// IsACPError implements ACPError.
func (e *LaunchError) IsACPError() bool { return true }

// ProcessTerminatedError indicates the agent process exited while requests
// or a stream were outstanding.
type ProcessTerminatedError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessTerminatedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("agent process terminated (exit %d): %v", e.ExitCode, e.Err)
	}

	if e.Stderr != "" {
		return fmt.Sprintf("agent process terminated (exit %d): %s", e.ExitCode, e.Stderr)
	}

	return fmt.Sprintf("agent process terminated (exit %d)", e.ExitCode)
}

func (e *ProcessTerminatedError) Unwrap() error {
	return e.Err
}

// IsACPError implements ACPError.
func (e *ProcessTerminatedError) IsACPError() bool { return true }

// ProtocolError is an error carried by a JSON-RPC response.
type ProtocolError struct {
	Method  string
	Code    int64
	Message string
	Data    []byte
}

func (e *ProtocolError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s failed (code %d): %s", e.Method, e.Code, e.Message)
	}

	return fmt.Sprintf("%s failed: %s", e.Method, e.Message)
}

// IsACPError implements ACPError.
func (e *ProtocolError) IsACPError() bool { return true }

// FrameError indicates bytes on the wire could not be decoded into a
// protocol message. The stream resynchronizes at the next header.
type FrameError struct {
	Reason string
	Raw    []byte
	Err    error
}

func (e *FrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed frame: %s: %v", e.Reason, e.Err)
	}

	return "malformed frame: " + e.Reason
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// IsACPError implements ACPError.
func (e *FrameError) IsACPError() bool { return true }

// InitializeError indicates the initialize handshake or session creation failed.
type InitializeError struct {
	Stage string
	Err   error
}

func (e *InitializeError) Error() string {
	return fmt.Sprintf("initialization failed during %s: %v", e.Stage, e.Err)
}

func (e *InitializeError) Unwrap() error {
	return e.Err
}

// IsACPError implements ACPError.
func (e *InitializeError) IsACPError() bool { return true }

// UpdateParseError indicates a session/update payload could not be parsed.
type UpdateParseError struct {
	Kind string
	Err  error
}

func (e *UpdateParseError) Error() string {
	return fmt.Sprintf("failed to parse %s update: %v", e.Kind, e.Err)
}

func (e *UpdateParseError) Unwrap() error {
	return e.Err
}

// IsACPError implements ACPError.
func (e *UpdateParseError) IsACPError() bool { return true }
