package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBinaryNotFoundError(t *testing.T) {
	err := &BinaryNotFoundError{
		SearchedPaths: []string{"/usr/bin/agent", "/opt/bin/agent"},
	}

	require.Equal(
		t,
		"agent binary not found in: [/usr/bin/agent /opt/bin/agent]",
		err.Error(),
	)
	require.True(t, err.IsACPError())
}

func TestLaunchError(t *testing.T) {
	root := errors.New("permission denied")
	err := &LaunchError{Path: "/bin/agent", Err: root}

	require.Equal(t, "failed to launch agent /bin/agent: permission denied", err.Error())
	require.ErrorIs(t, err, root)
	require.True(t, err.IsACPError())
}

func TestProcessTerminatedError_Variants(t *testing.T) {
	root := errors.New("signal: killed")

	withErr := &ProcessTerminatedError{ExitCode: 9, Stderr: "ignored", Err: root}
	require.Equal(t, "agent process terminated (exit 9): signal: killed", withErr.Error())
	require.ErrorIs(t, withErr, root)

	withStderr := &ProcessTerminatedError{ExitCode: 2, Stderr: "boom"}
	require.Equal(t, "agent process terminated (exit 2): boom", withStderr.Error())
	require.NoError(t, withStderr.Unwrap())

	bare := &ProcessTerminatedError{}
	require.Equal(t, "agent process terminated (exit 0)", bare.Error())
	require.True(t, bare.IsACPError())
}

func TestProtocolError(t *testing.T) {
	withCode := &ProtocolError{Method: "session/set_model", Code: -32602, Message: "bad model"}
	require.Equal(t, "session/set_model failed (code -32602): bad model", withCode.Error())

	noCode := &ProtocolError{Method: "initialize", Message: "nope"}
	require.Equal(t, "initialize failed: nope", noCode.Error())
	require.True(t, noCode.IsACPError())
}

func TestFrameError(t *testing.T) {
	bare := &FrameError{Reason: "missing Content-Length"}
	require.Equal(t, "malformed frame: missing Content-Length", bare.Error())

	root := errors.New("unexpected end of JSON input")
	wrapped := &FrameError{Reason: "invalid body", Err: root}
	require.Equal(t, "malformed frame: invalid body: unexpected end of JSON input", wrapped.Error())
	require.ErrorIs(t, wrapped, root)
	require.True(t, wrapped.IsACPError())
}

func TestInitializeError(t *testing.T) {
	root := &ProtocolError{Method: "initialize", Message: "unsupported version"}
	err := &InitializeError{Stage: "initialize", Err: root}

	require.Equal(t, "initialization failed during initialize: initialize failed: unsupported version", err.Error())

	protoErr, ok := errors.AsType[*ProtocolError](err)
	require.True(t, ok)
	require.Equal(t, "unsupported version", protoErr.Message)
}

func TestUpdateParseError(t *testing.T) {
	root := errors.New("unexpected token")
	err := &UpdateParseError{Kind: "tool_call", Err: root}

	require.Equal(t, "failed to parse tool_call update: unexpected token", err.Error())
	require.ErrorIs(t, err, root)
	require.True(t, err.IsACPError())
}

func TestErrorsAsType_ThroughWrapping(t *testing.T) {
	inner := &ProcessTerminatedError{ExitCode: 1}
	wrapped := fmt.Errorf("session/prompt: %w", inner)

	got, ok := errors.AsType[*ProcessTerminatedError](wrapped)
	require.True(t, ok)
	require.Equal(t, 1, got.ExitCode)
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrNotRunning,
		ErrNoActiveSession,
		ErrPromptInFlight,
		ErrAlreadyConnected,
		ErrClientClosed,
		ErrRequestTimeout,
		ErrControllerStopped,
		ErrStreamConsumed,
		ErrUnknownModel,
		ErrUnknownMode,
		ErrUnknownUpdateKind,
	}

	for _, sentinel := range sentinels {
		wrapped := fmt.Errorf("context: %w", sentinel)
		require.ErrorIs(t, wrapped, sentinel)
	}
}
