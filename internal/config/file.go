package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/wagiedev/acp-client-go/internal/mcp"
)

// Provider names the backend a File selects.
type Provider string

const (
	// ProviderACP drives an agent subprocess over ACP.
	ProviderACP Provider = "acp"
	// ProviderAnthropic calls the Anthropic Messages API.
	ProviderAnthropic Provider = "anthropic"
	// ProviderOpenAI calls the OpenAI Chat Completions API.
	ProviderOpenAI Provider = "openai"
)

// File is the on-disk YAML configuration.
type File struct {
	Provider          Provider        `yaml:"provider"`
	Agent             AgentFile       `yaml:"agent"`
	Model             string          `yaml:"model"`
	Mode              string          `yaml:"mode"`
	CompletionGraceMS int             `yaml:"completion_grace_ms"`
	InitializeTimeout string          `yaml:"initialize_timeout"`
	RequestTimeout    string          `yaml:"request_timeout"`
	Permission        string          `yaml:"permission"`
	DelegationTools   []string        `yaml:"delegation_tools"`
	MCPServers        []MCPServerFile `yaml:"mcp_servers"`
	LogLevel          string          `yaml:"log_level"`
}

// AgentFile describes how to launch the agent.
type AgentFile struct {
	Path    string            `yaml:"path"`
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Cwd     string            `yaml:"cwd"`
	Env     map[string]string `yaml:"env"`
}

// MCPServerFile is one mcp_servers entry.
type MCPServerFile struct {
	Name    string            `yaml:"name"`
	Type    string            `yaml:"type"`
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
}

// LoadFile reads, validates, and decodes a YAML configuration file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	f, err := ParseFile(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return f, nil
}

// ParseFile validates data against the configuration schema and decodes it.
func ParseFile(data []byte) (*File, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	if doc == nil {
		doc = map[string]any{}
	}

	// Round-trip through JSON so numbers and maps have the shapes the
	// validator expects.
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("normalize yaml: %w", err)
	}

	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, fmt.Errorf("normalize yaml: %w", err)
	}

	resolved, err := fileSchema().Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve schema: %w", err)
	}

	if err := resolved.Validate(instance); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if f.Provider == "" {
		f.Provider = ProviderACP
	}

	return &f, nil
}

// Apply copies file settings onto o. Fields already set on o are kept.
func (f *File) Apply(o *Options) error {
	if o.AgentPath == "" {
		o.AgentPath = f.Agent.Path
	}

	if o.AgentCommand == "" {
		o.AgentCommand = f.Agent.Command
	}

	if len(o.Args) == 0 {
		o.Args = f.Agent.Args
	}

	if o.Cwd == "" {
		o.Cwd = f.Agent.Cwd
	}

	if len(f.Agent.Env) > 0 {
		if o.Env == nil {
			o.Env = make(map[string]string, len(f.Agent.Env))
		}

		for k, v := range f.Agent.Env {
			if _, ok := o.Env[k]; !ok {
				o.Env[k] = v
			}
		}
	}

	if o.PreferredModel == "" {
		o.PreferredModel = f.Model
	}

	if o.PreferredMode == "" {
		o.PreferredMode = f.Mode
	}

	if o.CompletionGrace == 0 && f.CompletionGraceMS > 0 {
		o.CompletionGrace = time.Duration(f.CompletionGraceMS) * time.Millisecond
	}

	if o.InitializeTimeout == 0 && f.InitializeTimeout != "" {
		d, err := time.ParseDuration(f.InitializeTimeout)
		if err != nil {
			return fmt.Errorf("initialize_timeout: %w", err)
		}

		o.InitializeTimeout = d
	}

	if o.RequestTimeout == 0 && f.RequestTimeout != "" {
		d, err := time.ParseDuration(f.RequestTimeout)
		if err != nil {
			return fmt.Errorf("request_timeout: %w", err)
		}

		o.RequestTimeout = d
	}

	if o.PermissionHandler == nil && f.Permission != "" {
		cb, err := PermissionCallback(f.Permission)
		if err != nil {
			return err
		}

		o.PermissionHandler = cb
	}

	if o.DelegationTools == nil && f.DelegationTools != nil {
		o.DelegationTools = f.DelegationTools
	}

	for _, s := range f.MCPServers {
		o.MCPServers = append(o.MCPServers, s.serverConfig())
	}

	return nil
}

// Level parses LogLevel, defaulting to info.
func (f *File) Level() slog.Level {
	switch strings.ToLower(f.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (s MCPServerFile) serverConfig() mcp.ServerConfig {
	switch mcp.ServerType(s.Type) {
	case mcp.ServerTypeHTTP:
		return &mcp.HTTPServerConfig{Name: s.Name, URL: s.URL, Headers: s.Headers}
	case mcp.ServerTypeSSE:
		return &mcp.SSEServerConfig{Name: s.Name, URL: s.URL, Headers: s.Headers}
	default:
		return &mcp.StdioServerConfig{Name: s.Name, Command: s.Command, Args: s.Args, Env: s.Env}
	}
}

func fileSchema() *jsonschema.Schema {
	str := func() *jsonschema.Schema { return &jsonschema.Schema{Type: "string"} }
	strList := func() *jsonschema.Schema { return &jsonschema.Schema{Type: "array", Items: str()} }
	strMap := func() *jsonschema.Schema {
		return &jsonschema.Schema{Type: "object", AdditionalProperties: str()}
	}
	enum := func(values ...any) *jsonschema.Schema {
		return &jsonschema.Schema{Type: "string", Enum: values}
	}
	minGrace := 1.0

	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"provider": enum(string(ProviderACP), string(ProviderAnthropic), string(ProviderOpenAI)),
			"agent": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"path":    str(),
					"command": str(),
					"args":    strList(),
					"cwd":     str(),
					"env":     strMap(),
				},
				AdditionalProperties: falseSchema(),
			},
			"model":               str(),
			"mode":                str(),
			"completion_grace_ms": {Type: "integer", Minimum: &minGrace},
			"initialize_timeout":  str(),
			"request_timeout":     str(),
			"permission":          str(),
			"delegation_tools":    strList(),
			"mcp_servers": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type:     "object",
					Required: []string{"name"},
					Properties: map[string]*jsonschema.Schema{
						"name":    str(),
						"type":    enum(string(mcp.ServerTypeStdio), string(mcp.ServerTypeHTTP), string(mcp.ServerTypeSSE)),
						"command": str(),
						"args":    strList(),
						"env":     strMap(),
						"url":     str(),
						"headers": strMap(),
					},
					AdditionalProperties: falseSchema(),
				},
			},
			"log_level": enum("debug", "info", "warn", "error"),
		},
		AdditionalProperties: falseSchema(),
	}
}

// falseSchema rejects every instance.
func falseSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Not: &jsonschema.Schema{}}
}
