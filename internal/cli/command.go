package cli

import (
	"maps"
	"os"
	"slices"

	"github.com/wagiedev/acp-client-go/internal/config"
)

// BuildArgs constructs the agent command arguments.
func BuildArgs(options *config.Options) []string {
	return slices.Clone(options.Args)
}

// BuildEnvironment constructs the environment for the agent process:
// the current environment followed by the configured overrides in key order.
func BuildEnvironment(options *config.Options) []string {
	env := os.Environ()

	for _, key := range slices.Sorted(maps.Keys(options.Env)) {
		env = append(env, key+"="+options.Env[key])
	}

	return env
}
