package main

import (
	"bytes"
	"context"
	"flag"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	acpclient "github.com/wagiedev/acp-client-go"
	"github.com/wagiedev/acp-client-go/internal/config"
)

var configFileACP = config.File{Provider: config.ProviderACP}

type echoProvider struct {
	model string
	last  *acpclient.PromptRequest
}

func (p *echoProvider) SendStream(_ context.Context, req *acpclient.PromptRequest) (iter.Seq2[string, error], error) {
	p.last = req

	return func(yield func(string, error) bool) {
		if !yield("echo: ", nil) {
			return
		}

		yield(req.Text, nil)
	}, nil
}

func (p *echoProvider) AvailableModels() []acpclient.Model {
	return []acpclient.Model{{ID: "small", Name: "Small"}, {ID: "large", Name: "Large"}}
}

func (p *echoProvider) AvailableModes() []acpclient.Mode { return nil }

func (p *echoProvider) SelectModel(_ context.Context, id string) error {
	if id != "small" && id != "large" {
		return acpclient.ErrUnknownModel
	}

	p.model = id

	return nil
}

func (p *echoProvider) SelectMode(context.Context, string) error { return acpclient.ErrUnknownMode }

func newTestSession(p acpclient.Provider, out *bytes.Buffer) *session {
	return &session{
		provider: p,
		root:     ".",
		out:      out,
		log:      slog.New(slog.DiscardHandler),
	}
}

func TestParseFlags(t *testing.T) {
	fs := flag.NewFlagSet("acp-chat", flag.ContinueOnError)

	args, err := parseFlags(fs, []string{
		"-provider", "openai", "-model", "gpt-4o", "-f", "*.go", "-f", "docs/*.md", "-v",
		"explain", "this",
	})
	require.NoError(t, err)

	assert.Equal(t, "openai", args.provider)
	assert.Equal(t, "gpt-4o", args.model)
	assert.Equal(t, []string{"*.go", "docs/*.md"}, []string(args.files))
	assert.True(t, args.verbose)
	assert.Equal(t, "explain this", args.prompt)
}

func TestParseFlags_PromptFlagWins(t *testing.T) {
	fs := flag.NewFlagSet("acp-chat", flag.ContinueOnError)

	args, err := parseFlags(fs, []string{"-p", "hello", "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "hello", args.prompt)
}

func TestSession_Turn(t *testing.T) {
	var out bytes.Buffer

	p := &echoProvider{}
	s := newTestSession(p, &out)

	require.NoError(t, s.turn(context.Background(), "hi", make(chan os.Signal, 1)))
	assert.Equal(t, "echo: hi\n", out.String())
}

func TestSession_TurnAttachesFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main"), 0o600))

	var out bytes.Buffer

	p := &echoProvider{}
	s := newTestSession(p, &out)
	s.root = dir
	s.files = []string{"*.go"}

	require.NoError(t, s.turn(context.Background(), "review", make(chan os.Signal, 1)))
	require.Len(t, p.last.ReferencedFiles, 1)
	assert.Equal(t, "package main", p.last.ReferencedFiles[0].Text)
}

func TestSession_Commands(t *testing.T) {
	var out bytes.Buffer

	p := &echoProvider{}
	s := newTestSession(p, &out)
	ctx := context.Background()

	quit, err := s.command(ctx, "/models")
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Contains(t, out.String(), "large\tLarge")

	_, err = s.command(ctx, "/model large")
	require.NoError(t, err)
	assert.Equal(t, "large", p.model)

	_, err = s.command(ctx, "/model huge")
	require.ErrorIs(t, err, acpclient.ErrUnknownModel)

	_, err = s.command(ctx, "/tools")
	require.Error(t, err)

	_, err = s.command(ctx, "/bogus")
	require.Error(t, err)

	quit, err = s.command(ctx, "/quit")
	require.NoError(t, err)
	assert.True(t, quit)
}

func TestSession_REPL(t *testing.T) {
	var out bytes.Buffer

	s := newTestSession(&echoProvider{}, &out)
	in := strings.NewReader("first\n\n/model nope\nsecond\n/quit\nnever\n")

	require.NoError(t, s.repl(context.Background(), in, make(chan os.Signal, 1)))

	got := out.String()
	assert.Contains(t, got, "echo: first")
	assert.Contains(t, got, "echo: second")
	assert.Contains(t, got, "error: ")
	assert.NotContains(t, got, "never")
}

func TestNewProvider(t *testing.T) {
	log := slog.New(slog.DiscardHandler)

	_, _, err := newProvider(cliArgs{provider: "bogus"}, &configFileACP, log)
	require.Error(t, err)

	p, closeFn, err := newProvider(cliArgs{provider: "openai", model: "gpt-4o"}, &configFileACP, log)
	require.NoError(t, err)
	closeFn()
	assert.NotNil(t, p)

	p, closeFn, err = newProvider(cliArgs{agent: "/nonexistent/agent"}, &configFileACP, log)
	require.NoError(t, err)

	_, ok := p.(acpclient.Client)
	assert.True(t, ok)
	closeFn()

	_, _, err = newProvider(cliArgs{permission: "sometimes"}, &configFileACP, log)
	require.Error(t, err)
}
