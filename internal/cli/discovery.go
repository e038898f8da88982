package cli

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/wagiedev/acp-client-go/internal/errors"
)

// Config holds configuration for agent discovery.
type Config struct {
	// AgentPath is an explicit agent path that skips PATH search.
	// If empty, discovery will search PATH and common locations.
	AgentPath string

	// Command is the executable name to search for.
	Command string

	// Logger is an optional logger for discovery operations.
	// If nil, a default no-op logger is used.
	Logger *slog.Logger
}

// Discoverer locates the agent executable.
type Discoverer interface {
	// Discover returns the path to the agent executable or a
	// *errors.BinaryNotFoundError.
	Discover(ctx context.Context) (string, error)
}

// discoverer implements the Discoverer interface.
type discoverer struct {
	cfg *Config
	log *slog.Logger
}

// Compile-time verification that discoverer implements Discoverer.
var _ Discoverer = (*discoverer)(nil)

// NewDiscoverer creates a new agent discoverer with the given configuration.
func NewDiscoverer(cfg *Config) Discoverer {
	if cfg == nil {
		cfg = &Config{}
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	}

	return &discoverer{
		cfg: cfg,
		log: log,
	}
}

// Discover locates the agent executable.
func (d *discoverer) Discover(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	d.log.Debug("Discovering agent binary", "command", d.cfg.Command)

	path, err := d.find()
	if err != nil {
		d.log.Error("Failed to find agent binary", "error", err)

		return "", err
	}

	d.log.Debug("Found agent binary", "agent_path", path)

	return path, nil
}

func (d *discoverer) find() (string, error) {
	// If explicit path provided, use it and only it
	if d.cfg.AgentPath != "" {
		if info, err := os.Stat(d.cfg.AgentPath); err == nil && !info.IsDir() {
			return d.cfg.AgentPath, nil
		}

		d.log.Debug("Explicit agent path not found", "agent_path", d.cfg.AgentPath)

		return "", &errors.BinaryNotFoundError{SearchedPaths: []string{d.cfg.AgentPath}}
	}

	name := d.cfg.Command
	if name == "" {
		return "", &errors.BinaryNotFoundError{}
	}

	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	searched := []string{"$PATH"}

	commonDirs := []string{"/usr/local/bin", "/usr/bin"}
	if home, err := os.UserHomeDir(); err == nil {
		commonDirs = append(commonDirs,
			filepath.Join(home, ".local/bin"),
			filepath.Join(home, ".npm-global/bin"),
		)
	}

	for _, dir := range commonDirs {
		path := filepath.Join(dir, name)
		searched = append(searched, path)

		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}

	d.log.Warn("Agent binary not found in any searched paths", "searched_paths", searched)

	return "", &errors.BinaryNotFoundError{SearchedPaths: searched}
}
