package mcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServerConfigGetType(t *testing.T) {
	stdio := &StdioServerConfig{Name: "fs", Command: "server-binary"}
	sse := &SSEServerConfig{Name: "events"}
	http := &HTTPServerConfig{Name: "remote"}

	require.Equal(t, ServerTypeStdio, stdio.GetType())
	require.Equal(t, ServerTypeSSE, sse.GetType())
	require.Equal(t, ServerTypeHTTP, http.GetType())
	require.Equal(t, "fs", stdio.GetName())
}

func TestStdioServerConfig_MarshalJSON(t *testing.T) {
	cfg := &StdioServerConfig{
		Name:    "fs",
		Command: "/usr/bin/mcp-fs",
		Env:     map[string]string{"ROOT": "/tmp", "DEBUG": "1"},
	}

	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"name": "fs",
		"command": "/usr/bin/mcp-fs",
		"args": [],
		"env": [{"name":"DEBUG","value":"1"},{"name":"ROOT","value":"/tmp"}]
	}`, string(data))
}

func TestRemoteServerConfig_MarshalJSON(t *testing.T) {
	cfg := &HTTPServerConfig{
		Name:    "remote",
		URL:     "https://mcp.example.com",
		Headers: map[string]string{"Authorization": "Bearer x"},
	}

	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"type": "http",
		"name": "remote",
		"url": "https://mcp.example.com",
		"headers": [{"name":"Authorization","value":"Bearer x"}]
	}`, string(data))
}

func TestServers_EncodesEmptyArray(t *testing.T) {
	data, err := json.Marshal(struct {
		MCPServers []ServerConfig `json:"mcpServers"`
	}{MCPServers: Servers(nil)})
	require.NoError(t, err)
	require.JSONEq(t, `{"mcpServers":[]}`, string(data))
}

func TestServers_SkipsNil(t *testing.T) {
	servers := Servers([]ServerConfig{nil, &SSEServerConfig{Name: "a", URL: "http://x"}})
	require.Len(t, servers, 1)
	require.Equal(t, "a", servers[0].GetName())
}
