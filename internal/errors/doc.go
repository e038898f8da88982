// Package errors defines the error taxonomy of the ACP client.
//
// Process lifecycle failures (BinaryNotFoundError, LaunchError, ErrNotRunning,
// ProcessTerminatedError), protocol failures (ProtocolError, InitializeError),
// and wire failures (FrameError) are all distinct types. Every type supports
// unwrapping and can be checked with errors.Is and errors.AsType.
package errors
