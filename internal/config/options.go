package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/wagiedev/acp-client-go/internal/history"
	"github.com/wagiedev/acp-client-go/internal/hook"
	"github.com/wagiedev/acp-client-go/internal/mcp"
	"github.com/wagiedev/acp-client-go/internal/permission"
)

const (
	// DefaultAgentCommand is the executable searched on PATH when no
	// explicit agent path is configured.
	DefaultAgentCommand = "claude-code-acp"

	// DefaultCompletionGrace is how long a turn stays open after the
	// session/prompt response carries a stop reason, to flush trailing
	// notifications.
	DefaultCompletionGrace = 100 * time.Millisecond

	// DefaultInitializeTimeout bounds initialize and session/new.
	DefaultInitializeTimeout = 60 * time.Second

	// DefaultRequestTimeout bounds session/set_model and session/set_mode.
	DefaultRequestTimeout = 10 * time.Second
)

// DefaultDelegationTools are the tool names that hand a turn to a sub-agent.
var DefaultDelegationTools = []string{"Task"}

// Options configures the behavior of the ACP client.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// AgentPath is the explicit path to the agent executable.
	// If empty, AgentCommand is searched in PATH.
	AgentPath string

	// AgentCommand is the executable name searched in PATH.
	// Defaults to DefaultAgentCommand.
	AgentCommand string

	// Args are extra arguments passed to the agent process.
	Args []string

	// Cwd sets the working directory for the agent process and session/new.
	Cwd string

	// Env provides additional environment variables for the agent process.
	Env map[string]string

	// PreferredModel is selected on session creation when the agent offers it.
	PreferredModel string

	// PreferredMode is selected on session creation when the agent offers it.
	PreferredMode string

	// CompletionGrace is the delay between a session/prompt stop reason and
	// turn completion when no explicit completion notification arrives.
	// Zero uses DefaultCompletionGrace. Trailing notifications that arrive
	// after the grace period are dropped.
	CompletionGrace time.Duration

	// InitializeTimeout bounds the initialize and session/new requests.
	// Zero uses DefaultInitializeTimeout.
	InitializeTimeout time.Duration

	// RequestTimeout bounds model and mode selection requests.
	// Zero uses DefaultRequestTimeout.
	RequestTimeout time.Duration

	// MCPServers are attached to every session the client creates.
	MCPServers []mcp.ServerConfig

	// Stderr is a callback function for handling agent stderr lines.
	Stderr func(string)

	// Hooks configures lifecycle observers.
	Hooks map[hook.Event][]*hook.Matcher

	// PermissionHandler decides session/request_permission calls.
	// If nil, permission.AllowPolicy is used.
	PermissionHandler permission.Callback

	// DelegationTools names the tools that delegate to a sub-agent.
	// If nil, DefaultDelegationTools is used.
	DelegationTools []string

	// History receives user and assistant records for each turn.
	// If nil, nothing is recorded.
	History history.Store

	// Transport allows injecting a custom transport implementation.
	// If nil, a subprocess supervisor is created automatically.
	Transport Transport `json:"-"`
}

// Path returns the explicit agent path from options or ACP_AGENT_PATH.
// It is empty when the command should be searched for.
func (o *Options) Path() string {
	if o.AgentPath != "" {
		return o.AgentPath
	}

	return os.Getenv("ACP_AGENT_PATH")
}

// Command returns the executable name to search for.
func (o *Options) Command() string {
	if o.AgentCommand != "" {
		return o.AgentCommand
	}

	return DefaultAgentCommand
}

// Grace returns the completion grace period from options, env var, or default.
func (o *Options) Grace() time.Duration {
	if o.CompletionGrace > 0 {
		return o.CompletionGrace
	}

	if ms := os.Getenv("ACP_COMPLETION_GRACE_MS"); ms != "" {
		if n, err := strconv.Atoi(ms); err == nil && n > 0 {
			return time.Duration(n) * time.Millisecond
		}
	}

	return DefaultCompletionGrace
}

// InitTimeout returns the initialize timeout from options, env var, or default.
func (o *Options) InitTimeout() time.Duration {
	if o.InitializeTimeout > 0 {
		return o.InitializeTimeout
	}

	if sec := os.Getenv("ACP_INITIALIZE_TIMEOUT"); sec != "" {
		if n, err := strconv.Atoi(sec); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}

	return DefaultInitializeTimeout
}

// SelectTimeout returns the effective timeout for selection requests.
func (o *Options) SelectTimeout() time.Duration {
	if o.RequestTimeout > 0 {
		return o.RequestTimeout
	}

	return DefaultRequestTimeout
}

// Delegation returns the effective delegation tool names.
func (o *Options) Delegation() []string {
	if o.DelegationTools != nil {
		return o.DelegationTools
	}

	return DefaultDelegationTools
}

// Permission returns the effective permission callback.
func (o *Options) Permission() permission.Callback {
	if o.PermissionHandler != nil {
		return o.PermissionHandler
	}

	return permission.AllowPolicy
}
