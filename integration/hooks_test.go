//go:build integration

package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	acpclient "github.com/wagiedev/acp-client-go"
)

// TestHooks_ToolCallsAndTurn tests that tool and turn events are delivered.
func TestHooks_ToolCallsAndTurn(t *testing.T) {
	var (
		mu     sync.Mutex
		events []acpclient.HookEvent
	)

	record := func(_ context.Context, input acpclient.HookInput) {
		mu.Lock()
		defer mu.Unlock()

		events = append(events, input.GetHookEventName())
	}

	matchers := []*acpclient.HookMatcher{{Hooks: []acpclient.HookCallback{record}}}

	client := connect(t,
		acpclient.WithCwd(t.TempDir()),
		acpclient.WithPermissionHandler(acpclient.AllowPolicy),
		acpclient.WithHooks(map[acpclient.HookEvent][]*acpclient.HookMatcher{
			acpclient.HookEventToolCallStarted: matchers,
			acpclient.HookEventTurnCompleted:   matchers,
		}),
	)
	ctx := testContext(t, 120*time.Second)

	stream, err := client.SendStream(ctx, acpclient.Text("List the files in the current directory using a tool."))
	require.NoError(t, err)

	_, err = acpclient.Collect(stream)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return len(events) > 0 && events[len(events)-1] == acpclient.HookEventTurnCompleted
	}, 10*time.Second, 50*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	require.Contains(t, events, acpclient.HookEventToolCallStarted)
	require.NotEmpty(t, client.ToolCalls())
}
