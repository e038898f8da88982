// Command acp-chat is a line-oriented chat client for ACP agents and the
// Anthropic and OpenAI HTTP APIs.
//
// Usage:
//
//	acp-chat [flags] [prompt]
//
// Without a prompt it reads prompts from stdin, one per line. Lines starting
// with a slash are commands: /models, /model ID, /modes, /mode ID, /tools,
// /quit. Ctrl-C cancels the running turn.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"golang.org/x/sync/errgroup"

	acpclient "github.com/wagiedev/acp-client-go"
	"github.com/wagiedev/acp-client-go/internal/config"
)

func main() {
	args, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	if err := run(context.Background(), args, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// session holds the provider and the per-run settings shared by turns.
type session struct {
	provider acpclient.Provider
	root     string
	files    []string
	out      io.Writer
	log      *slog.Logger
}

func run(ctx context.Context, args cliArgs, in io.Reader, out, errOut io.Writer) error {
	file := &config.File{Provider: config.ProviderACP}

	if args.config != "" {
		f, err := acpclient.LoadConfigFile(args.config)
		if err != nil {
			return err
		}

		file = f
	}

	level := file.Level()
	if args.verbose {
		level = slog.LevelDebug
	}

	log := acpclient.LevelLogger(errOut, level)

	provider, closeFn, err := newProvider(args, file, log)
	if err != nil {
		return err
	}

	defer closeFn()

	root := args.cwd
	if root == "" {
		root = "."
	}

	s := &session{provider: provider, root: root, files: args.files, out: out, log: log}

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)

	defer signal.Stop(interrupts)

	if args.prompt != "" {
		return s.turn(ctx, args.prompt, interrupts)
	}

	return s.repl(ctx, in, interrupts)
}

// newProvider builds the backend named by flags or the config file.
func newProvider(args cliArgs, file *config.File, log *slog.Logger) (acpclient.Provider, func(), error) {
	name := config.Provider(args.provider)
	if name == "" {
		name = file.Provider
	}

	model := args.model
	if model == "" {
		model = file.Model
	}

	switch name {
	case config.ProviderAnthropic:
		return acpclient.NewAnthropicProvider(log, model), func() {}, nil
	case config.ProviderOpenAI:
		return acpclient.NewOpenAIProvider(log, model), func() {}, nil
	case config.ProviderACP, "":
	default:
		return nil, nil, fmt.Errorf("unknown provider %q", name)
	}

	options := &acpclient.Options{
		Logger:         log,
		AgentPath:      args.agent,
		Cwd:            args.cwd,
		PreferredModel: args.model,
		PreferredMode:  args.mode,
		Stderr:         func(line string) { log.Debug("agent stderr", "line", line) },
	}

	if args.permission != "" {
		cb, err := config.PermissionCallback(args.permission)
		if err != nil {
			return nil, nil, err
		}

		options.PermissionHandler = cb
	}

	// File settings fill whatever the flags left unset.
	if err := file.Apply(options); err != nil {
		return nil, nil, err
	}

	client := acpclient.NewClient(func(o *acpclient.Options) { *o = *options })

	return client, func() {
		if err := client.Close(); err != nil {
			log.Warn("Failed to close client", "error", err)
		}
	}, nil
}

func (s *session) repl(ctx context.Context, in io.Reader, interrupts <-chan os.Signal) error {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(s.out, "> ")

		if !scanner.Scan() {
			fmt.Fprintln(s.out)

			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := s.command(ctx, line)
			if err != nil {
				fmt.Fprintf(s.out, "error: %v\n", err)
			}

			if quit {
				return nil
			}

			continue
		}

		if err := s.turn(ctx, line, interrupts); err != nil {
			fmt.Fprintf(s.out, "\nerror: %v\n", err)

			if _, ok := errors.AsType[*acpclient.ProcessTerminatedError](err); ok {
				fmt.Fprintln(s.out, "agent exited; the next prompt starts a new session")
			}
		}
	}
}

// command runs a slash command. It reports whether the REPL should exit.
func (s *session) command(ctx context.Context, line string) (bool, error) {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "quit", "exit":
		return true, nil
	case "models":
		for _, m := range s.provider.AvailableModels() {
			fmt.Fprintf(s.out, "  %s\t%s\n", m.ID, m.Name)
		}
	case "modes":
		for _, m := range s.provider.AvailableModes() {
			fmt.Fprintf(s.out, "  %s\t%s\n", m.ID, m.Name)
		}
	case "model":
		return false, s.provider.SelectModel(ctx, arg)
	case "mode":
		return false, s.provider.SelectMode(ctx, arg)
	case "tools":
		client, ok := s.provider.(acpclient.Client)
		if !ok {
			return false, errors.New("tool calls are only tracked for ACP agents")
		}

		for _, tc := range client.ToolCalls() {
			fmt.Fprintf(s.out, "  %s\t%s\t%s\t%s\n", tc.ID, tc.Name, tc.Status, tc.Query)
		}
	default:
		return false, fmt.Errorf("unknown command /%s", name)
	}

	return false, nil
}

// turn sends one prompt and prints the reply. An interrupt asks the agent
// to cancel; HTTP providers are detached instead.
func (s *session) turn(ctx context.Context, text string, interrupts <-chan os.Signal) error {
	req, err := s.request(text)
	if err != nil {
		return err
	}

	// Drop interrupts that arrived while idle.
	select {
	case <-interrupts:
	default:
	}

	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := s.provider.SendStream(turnCtx, req)
	if err != nil {
		return err
	}

	finished := make(chan struct{})

	g, gctx := errgroup.WithContext(turnCtx)

	g.Go(func() error {
		defer close(finished)

		for chunk, err := range stream {
			if err != nil {
				return err
			}

			fmt.Fprint(s.out, chunk)
		}

		fmt.Fprintln(s.out)

		return nil
	})

	g.Go(func() error {
		select {
		case <-interrupts:
			if client, ok := s.provider.(acpclient.Client); ok {
				s.log.Info("Cancelling turn")

				return client.Cancel(ctx)
			}

			cancel()

			return nil
		case <-finished:
			return nil
		case <-gctx.Done():
			return nil
		}
	})

	return g.Wait()
}

// request builds a prompt with the attached files.
func (s *session) request(text string) (*acpclient.PromptRequest, error) {
	req := acpclient.Text(text)

	if len(s.files) == 0 {
		return req, nil
	}

	paths, err := acpclient.ExpandReferences(s.root, s.files...)
	if err != nil {
		return nil, fmt.Errorf("expand files: %w", err)
	}

	files, err := acpclient.ReadFiles(paths...)
	if err != nil {
		return nil, err
	}

	req.ReferencedFiles = files

	return req, nil
}
