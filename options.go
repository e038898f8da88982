package acpclient

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/wagiedev/acp-client-go/internal/config"
)

// Options configures a Client.
type Options = config.Options

// Option configures Options using the functional options pattern.
type Option func(*Options)

// applyOptions applies functional options to a fresh Options struct.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// ===== Basic Configuration =====

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithAgentPath sets the explicit path to the agent executable.
// If not set, the agent command is searched in PATH.
func WithAgentPath(path string) Option {
	return func(o *Options) {
		o.AgentPath = path
	}
}

// WithAgentCommand sets the executable name searched in PATH.
func WithAgentCommand(command string) Option {
	return func(o *Options) {
		o.AgentCommand = command
	}
}

// WithArgs passes extra arguments to the agent process.
func WithArgs(args ...string) Option {
	return func(o *Options) {
		o.Args = args
	}
}

// WithCwd sets the working directory for the agent process and session.
func WithCwd(cwd string) Option {
	return func(o *Options) {
		o.Cwd = cwd
	}
}

// WithEnv provides additional environment variables for the agent process.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		o.Env = env
	}
}

// WithStderr sets a callback for agent stderr lines.
func WithStderr(handler func(string)) Option {
	return func(o *Options) {
		o.Stderr = handler
	}
}

// ===== Session Defaults =====

// WithModel selects the model on session creation when the agent offers it.
func WithModel(model string) Option {
	return func(o *Options) {
		o.PreferredModel = model
	}
}

// WithMode selects the mode on session creation when the agent offers it.
func WithMode(mode string) Option {
	return func(o *Options) {
		o.PreferredMode = mode
	}
}

// WithMCPServers attaches MCP servers to every session.
func WithMCPServers(servers ...MCPServerConfig) Option {
	return func(o *Options) {
		o.MCPServers = servers
	}
}

// ===== Timing =====

// WithCompletionGrace sets how long a turn stays open after the agent's
// prompt response when no completion notification arrives.
func WithCompletionGrace(d time.Duration) Option {
	return func(o *Options) {
		o.CompletionGrace = d
	}
}

// WithInitializeTimeout bounds the initialize and session/new requests.
func WithInitializeTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.InitializeTimeout = timeout
	}
}

// WithRequestTimeout bounds model and mode selection requests.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.RequestTimeout = timeout
	}
}

// ===== Callbacks =====

// WithHooks configures lifecycle hooks.
func WithHooks(hooks map[HookEvent][]*HookMatcher) Option {
	return func(o *Options) {
		o.Hooks = hooks
	}
}

// WithPermissionHandler sets the callback that answers permission requests.
// If not set, AllowPolicy is used.
func WithPermissionHandler(handler PermissionCallback) Option {
	return func(o *Options) {
		o.PermissionHandler = handler
	}
}

// WithDelegationTools names the tools that hand a turn to a sub-agent.
// Output produced while such a tool runs is hidden from the stream.
func WithDelegationTools(tools ...string) Option {
	return func(o *Options) {
		o.DelegationTools = tools
	}
}

// WithHistory records each turn's user and assistant text in store.
func WithHistory(store HistoryStore) Option {
	return func(o *Options) {
		o.History = store
	}
}

// ===== Advanced =====

// WithTransport injects a custom transport implementation.
// The transport must implement the Transport interface.
func WithTransport(transport Transport) Option {
	return func(o *Options) {
		o.Transport = transport
	}
}

// WithConfigFile applies settings from a YAML configuration file. Options
// set before it take precedence. An invalid file is reported through the
// logger and otherwise ignored; use LoadConfigFile to handle the error.
func WithConfigFile(path string) Option {
	return func(o *Options) {
		f, err := LoadConfigFile(path)
		if err == nil {
			err = f.Apply(o)
		}

		if err != nil && o.Logger != nil {
			o.Logger.Warn("Ignoring config file", "path", path, "error", err)
		}
	}
}

// ConfigFile is the on-disk YAML configuration.
type ConfigFile = config.File

// LoadConfigFile reads and validates a YAML configuration file.
func LoadConfigFile(path string) (*ConfigFile, error) {
	f, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return f, nil
}
