package main

import (
	"flag"
	"strings"
)

type cliArgs struct {
	config     string
	provider   string
	agent      string
	model      string
	mode       string
	cwd        string
	permission string
	prompt     string
	files      patternList
	verbose    bool
}

// patternList collects a repeatable flag.
type patternList []string

func (p *patternList) String() string { return strings.Join(*p, ",") }

func (p *patternList) Set(v string) error {
	*p = append(*p, v)

	return nil
}

func parseFlags(fs *flag.FlagSet, argv []string) (cliArgs, error) {
	var args cliArgs

	fs.StringVar(&args.config, "config", "", "YAML configuration file")
	fs.StringVar(&args.provider, "provider", "", "Backend: acp, anthropic, or openai (default acp)")
	fs.StringVar(&args.agent, "agent", "", "Path to the ACP agent executable")
	fs.StringVar(&args.model, "model", "", "Model to select")
	fs.StringVar(&args.mode, "mode", "", "Mode to select")
	fs.StringVar(&args.cwd, "cwd", "", "Working directory for the session")
	fs.StringVar(&args.permission, "permission", "", "Permission policy: allow or reject")
	fs.StringVar(&args.prompt, "p", "", "Send one prompt and exit")
	fs.Var(&args.files, "f", "Glob of files to attach (repeatable)")
	fs.BoolVar(&args.verbose, "v", false, "Debug logging")

	if err := fs.Parse(argv); err != nil {
		return cliArgs{}, err
	}

	if args.prompt == "" && fs.NArg() > 0 {
		args.prompt = strings.Join(fs.Args(), " ")
	}

	return args, nil
}
