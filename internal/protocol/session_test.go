package protocol

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/acp-client-go/internal/config"
	"github.com/wagiedev/acp-client-go/internal/mcp"
	"github.com/wagiedev/acp-client-go/internal/message"
	"github.com/wagiedev/acp-client-go/internal/permission"
)

func newTestSession(t *testing.T, options *config.Options) (*Session, *mockTransport) {
	t.Helper()

	transport := newMockTransport()
	controller := startController(t, transport)

	session := NewSession(slog.Default(), controller, options)
	session.RegisterHandlers()

	return session, transport
}

func TestSession_Initialize(t *testing.T) {
	session, transport := newTestSession(t, &config.Options{})

	errCh := make(chan error, 1)
	go func() { errCh <- session.Initialize(context.Background()) }()

	req := transport.nextWrite(t)
	require.Equal(t, MethodInitialize, req["method"])
	require.Equal(t, map[string]any{
		"protocolVersion": float64(ProtocolVersion),
		"clientCapabilities": map[string]any{
			"fs":       map[string]any{"readTextFile": false, "writeTextFile": false},
			"terminal": false,
		},
	}, req["params"])

	respond(transport, req["id"], map[string]any{"protocolVersion": 1, "agentCapabilities": map[string]any{}})
	require.NoError(t, <-errCh)

	result := session.GetInitializationResult()
	require.Equal(t, float64(1), result["protocolVersion"])

	// Callers get a copy.
	result["protocolVersion"] = 99
	require.Equal(t, float64(1), session.GetInitializationResult()["protocolVersion"])
}

func TestSession_GetInitializationResult_BeforeInit(t *testing.T) {
	session := NewSession(slog.Default(), nil, &config.Options{})
	require.Nil(t, session.GetInitializationResult())
}

func TestSession_NewSession(t *testing.T) {
	session, transport := newTestSession(t, &config.Options{
		MCPServers: []mcp.ServerConfig{&mcp.StdioServerConfig{Name: "fs", Command: "mcp-fs"}},
	})

	type newResult struct {
		id     string
		models int
		err    error
	}

	out := make(chan newResult, 1)

	go func() {
		sess, err := session.NewSession(context.Background(), "/work")
		if err != nil {
			out <- newResult{err: err}

			return
		}

		out <- newResult{id: sess.ID, models: len(sess.Models)}
	}()

	req := transport.nextWrite(t)
	require.Equal(t, MethodSessionNew, req["method"])

	params, ok := req["params"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "/work", params["cwd"])
	require.Len(t, params["mcpServers"], 1)

	respond(transport, req["id"], map[string]any{
		"sessionId": "s1",
		"models": map[string]any{
			"availableModels": []any{map[string]any{"modelId": "m1", "name": "One"}},
			"currentModelId":  "m1",
		},
	})

	res := <-out
	require.NoError(t, res.err)
	require.Equal(t, "s1", res.id)
	require.Equal(t, 1, res.models)
}

func TestSession_NewSession_EmptyMCPServersIsList(t *testing.T) {
	session, transport := newTestSession(t, &config.Options{})

	go func() { _, _ = session.NewSession(context.Background(), "/work") }()

	req := transport.nextWrite(t)
	params, ok := req["params"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, []any{}, params["mcpServers"])

	respond(transport, req["id"], map[string]any{"sessionId": "s1"})
}

func TestSession_SelectionRequests(t *testing.T) {
	session, transport := newTestSession(t, &config.Options{RequestTimeout: time.Second})

	errCh := make(chan error, 1)

	go func() { errCh <- session.SetModel(context.Background(), "s1", "m2") }()

	req := transport.nextWrite(t)
	require.Equal(t, MethodSetModel, req["method"])
	require.Equal(t, map[string]any{"sessionId": "s1", "modelId": "m2"}, req["params"])
	respond(transport, req["id"], map[string]any{})
	require.NoError(t, <-errCh)

	go func() { errCh <- session.SetMode(context.Background(), "s1", "plan") }()

	req = transport.nextWrite(t)
	require.Equal(t, MethodSetMode, req["method"])
	require.Equal(t, map[string]any{"sessionId": "s1", "modeId": "plan"}, req["params"])
	respond(transport, req["id"], nil)
	require.NoError(t, <-errCh)
}

func TestSession_Prompt(t *testing.T) {
	session, transport := newTestSession(t, &config.Options{})

	type promptResult struct {
		stop string
		err  error
	}

	out := make(chan promptResult, 1)

	go func() {
		res, err := session.Prompt(context.Background(), "s1", []message.ContentBlock{message.NewTextBlock("hi")})
		if err != nil {
			out <- promptResult{err: err}

			return
		}

		out <- promptResult{stop: res.StopReason}
	}()

	req := transport.nextWrite(t)
	require.Equal(t, MethodPrompt, req["method"])
	require.Equal(t, map[string]any{
		"sessionId": "s1",
		"prompt":    []any{map[string]any{"type": "text", "text": "hi"}},
	}, req["params"])

	respond(transport, req["id"], map[string]any{"stopReason": "end_turn"})

	res := <-out
	require.NoError(t, res.err)
	require.Equal(t, "end_turn", res.stop)
}

func TestSession_Cancel(t *testing.T) {
	session, transport := newTestSession(t, &config.Options{})

	require.NoError(t, session.Cancel(context.Background(), "s1"))

	msg := transport.nextWrite(t)
	require.Equal(t, MethodCancel, msg["method"])
	require.NotContains(t, msg, "id")
}

func TestSession_RequestPermission(t *testing.T) {
	tests := []struct {
		name    string
		handler permission.Callback
		want    map[string]any
		wantErr bool
	}{
		{
			name: "default allows once",
			want: map[string]any{"outcome": map[string]any{"outcome": "selected", "optionId": "allow"}},
		},
		{
			name:    "reject policy",
			handler: permission.RejectPolicy,
			want:    map[string]any{"outcome": map[string]any{"outcome": "selected", "optionId": "reject"}},
		},
		{
			name: "nil result cancels",
			handler: func(context.Context, *permission.Request) (permission.Result, error) {
				return nil, nil
			},
			want: map[string]any{"outcome": map[string]any{"outcome": "cancelled"}},
		},
		{
			name: "callback error",
			handler: func(context.Context, *permission.Request) (permission.Result, error) {
				return nil, errors.New("denied by test")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, transport := newTestSession(t, &config.Options{PermissionHandler: tt.handler})

			transport.send(map[string]any{
				"jsonrpc": "2.0",
				"id":      7,
				"method":  MethodRequestPermission,
				"params": map[string]any{
					"sessionId": "s1",
					"toolCall":  map[string]any{"toolCallId": "t1", "title": "Write file"},
					"options": []any{
						map[string]any{"optionId": "allow", "name": "Allow", "kind": "allow_once"},
						map[string]any{"optionId": "reject", "name": "Reject", "kind": "reject_once"},
					},
				},
			})

			reply := transport.nextWrite(t)
			require.EqualValues(t, 7, reply["id"])

			if tt.wantErr {
				require.Contains(t, reply, "error")

				return
			}

			require.Equal(t, tt.want, reply["result"])
		})
	}
}

func TestSession_InitializationResult_DataRace(t *testing.T) {
	// Run with: go test -race -run TestSession_InitializationResult_DataRace.
	session := NewSession(slog.Default(), nil, &config.Options{})

	var wg sync.WaitGroup

	for range 10 {
		wg.Go(func() {
			session.initMu.Lock()
			session.initializationResult = map[string]any{"protocolVersion": 1}
			session.initMu.Unlock()
		})
		wg.Go(func() {
			_ = session.GetInitializationResult()
		})
	}

	wg.Wait()
}
