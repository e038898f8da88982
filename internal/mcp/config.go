package mcp

import (
	"encoding/json"
	"maps"
	"slices"
)

// ServerType represents the transport of an MCP server.
type ServerType string

const (
	// ServerTypeStdio launches the server as a subprocess of the agent.
	ServerTypeStdio ServerType = "stdio"
	// ServerTypeSSE connects over Server-Sent Events.
	ServerTypeSSE ServerType = "sse"
	// ServerTypeHTTP connects over streamable HTTP.
	ServerTypeHTTP ServerType = "http"
)

// ServerConfig is an MCP server the agent should connect to for a session.
type ServerConfig interface {
	GetType() ServerType
	GetName() string
}

// Compile-time verification that all MCP server config types implement ServerConfig.
var (
	_ ServerConfig = (*StdioServerConfig)(nil)
	_ ServerConfig = (*SSEServerConfig)(nil)
	_ ServerConfig = (*HTTPServerConfig)(nil)
)

// NameValue is the list form ACP uses for env vars and headers.
type NameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// StdioServerConfig configures a stdio-based MCP server.
type StdioServerConfig struct {
	Name    string
	Command string
	Args    []string
	Env     map[string]string
}

// GetType implements ServerConfig.
func (m *StdioServerConfig) GetType() ServerType { return ServerTypeStdio }

// GetName implements ServerConfig.
func (m *StdioServerConfig) GetName() string { return m.Name }

// MarshalJSON renders the ACP wire shape.
func (m *StdioServerConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name    string      `json:"name"`
		Command string      `json:"command"`
		Args    []string    `json:"args"`
		Env     []NameValue `json:"env"`
	}{
		Name:    m.Name,
		Command: m.Command,
		Args:    nonNil(m.Args),
		Env:     pairs(m.Env),
	})
}

// SSEServerConfig configures a Server-Sent Events MCP server.
type SSEServerConfig struct {
	Name    string
	URL     string
	Headers map[string]string
}

// GetType implements ServerConfig.
func (m *SSEServerConfig) GetType() ServerType { return ServerTypeSSE }

// GetName implements ServerConfig.
func (m *SSEServerConfig) GetName() string { return m.Name }

// MarshalJSON renders the ACP wire shape.
func (m *SSEServerConfig) MarshalJSON() ([]byte, error) {
	return marshalRemote(ServerTypeSSE, m.Name, m.URL, m.Headers)
}

// HTTPServerConfig configures an HTTP-based MCP server.
type HTTPServerConfig struct {
	Name    string
	URL     string
	Headers map[string]string
}

// GetType implements ServerConfig.
func (m *HTTPServerConfig) GetType() ServerType { return ServerTypeHTTP }

// GetName implements ServerConfig.
func (m *HTTPServerConfig) GetName() string { return m.Name }

// MarshalJSON renders the ACP wire shape.
func (m *HTTPServerConfig) MarshalJSON() ([]byte, error) {
	return marshalRemote(ServerTypeHTTP, m.Name, m.URL, m.Headers)
}

func marshalRemote(typ ServerType, name, url string, headers map[string]string) ([]byte, error) {
	return json.Marshal(struct {
		Type    ServerType  `json:"type"`
		Name    string      `json:"name"`
		URL     string      `json:"url"`
		Headers []NameValue `json:"headers"`
	}{
		Type:    typ,
		Name:    name,
		URL:     url,
		Headers: pairs(headers),
	})
}

// Servers returns the list to send as session/new mcpServers. It is never
// nil so the field always encodes as a JSON array.
func Servers(configs []ServerConfig) []ServerConfig {
	out := make([]ServerConfig, 0, len(configs))

	for _, c := range configs {
		if c != nil {
			out = append(out, c)
		}
	}

	return out
}

// pairs flattens a map into name/value entries sorted by name.
func pairs(m map[string]string) []NameValue {
	out := make([]NameValue, 0, len(m))

	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, NameValue{Name: k, Value: m[k]})
	}

	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
