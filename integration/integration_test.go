//go:build integration

package integration

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	acpclient "github.com/wagiedev/acp-client-go"
)

// skipIfAgentNotInstalled skips the test if the error indicates the agent is not found.
func skipIfAgentNotInstalled(t *testing.T, err error) {
	t.Helper()

	if _, ok := errors.AsType[*acpclient.BinaryNotFoundError](err); ok {
		t.Skip("ACP agent not installed; set ACP_AGENT_PATH")
	}
}

// connect starts a client against the installed agent and closes it on cleanup.
func connect(t *testing.T, opts ...acpclient.Option) acpclient.Client {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client := acpclient.NewClient(opts...)
	if err := client.Connect(ctx); err != nil {
		skipIfAgentNotInstalled(t, err)
		t.Fatalf("Connect failed: %v", err)
	}

	t.Cleanup(func() { _ = client.Close() })

	return client
}

func testContext(t *testing.T, d time.Duration) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), d)
	t.Cleanup(cancel)

	return ctx
}

// contains4 checks if a string contains "4" in various formats.
func contains4(s string) bool {
	lower := strings.ToLower(s)

	return strings.Contains(lower, "4") || strings.Contains(lower, "four")
}

func requireEnv(t *testing.T, name string) {
	t.Helper()

	if os.Getenv(name) == "" {
		t.Skipf("%s not set", name)
	}
}
