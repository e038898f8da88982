//go:build integration

package integration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	acpclient "github.com/wagiedev/acp-client-go"
)

// TestProviders_HTTP tests the Anthropic and OpenAI providers against the live APIs.
func TestProviders_HTTP(t *testing.T) {
	cases := []struct {
		name string
		env  string
		new  func() acpclient.Provider
	}{
		{"anthropic", "ANTHROPIC_API_KEY", func() acpclient.Provider { return acpclient.NewAnthropicProvider(nil, "") }},
		{"openai", "OPENAI_API_KEY", func() acpclient.Provider { return acpclient.NewOpenAIProvider(nil, "") }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			requireEnv(t, tc.env)

			p := tc.new()
			stream, err := p.SendStream(testContext(t, 60*time.Second),
				acpclient.Text("What is 2+2? Reply with just the number."))
			require.NoError(t, err)

			text, err := acpclient.Collect(stream)
			require.NoError(t, err)
			require.True(t, contains4(text), "Answer should mention 4: %q", text)
		})
	}
}
