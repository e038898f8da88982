package acpclient

import "github.com/wagiedev/acp-client-go/internal/mcp"

// MCPServerConfig is an MCP server the agent connects to for a session.
type MCPServerConfig = mcp.ServerConfig

// MCPStdioServerConfig launches an MCP server as a subprocess of the agent.
type MCPStdioServerConfig = mcp.StdioServerConfig

// MCPHTTPServerConfig connects to an MCP server over streamable HTTP.
type MCPHTTPServerConfig = mcp.HTTPServerConfig

// MCPSSEServerConfig connects to an MCP server over server-sent events.
type MCPSSEServerConfig = mcp.SSEServerConfig
