package subprocess

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/acp-client-go/internal/config"
	"github.com/wagiedev/acp-client-go/internal/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func requireUnix(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("Test requires Unix process semantics")
	}
}

func lookPath(t *testing.T, name string) string {
	t.Helper()

	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not available: %v", name, err)
	}

	return path
}

func waitDone(t *testing.T, s *Supervisor) {
	t.Helper()

	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("agent process did not exit")
	}
}

func TestStart_BinaryNotFound(t *testing.T) {
	s := New(discardLogger(), &config.Options{AgentPath: "/nonexistent/agent"})

	err := s.Start(context.Background())

	_, ok := stderrors.AsType[*errors.BinaryNotFoundError](err)
	require.True(t, ok, "got %v", err)
}

func TestStart_LaunchFailed(t *testing.T) {
	requireUnix(t)

	// Not executable: stat succeeds but exec is refused.
	path := filepath.Join(t.TempDir(), "agent")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o644))

	s := New(discardLogger(), &config.Options{AgentPath: path})

	err := s.Start(context.Background())

	launchErr, ok := stderrors.AsType[*errors.LaunchError](err)
	require.True(t, ok, "got %v", err)
	require.Equal(t, path, launchErr.Path)
}

func TestStart_NonexistentCwd(t *testing.T) {
	requireUnix(t)

	s := New(discardLogger(), &config.Options{
		AgentPath: lookPath(t, "cat"),
		Cwd:       "/nonexistent/directory/for/agent",
	})

	err := s.Start(context.Background())

	_, ok := stderrors.AsType[*errors.LaunchError](err)
	require.True(t, ok, "got %v", err)
}

func TestWrite_BeforeStart(t *testing.T) {
	s := New(discardLogger(), &config.Options{})

	err := s.Write(context.Background(), []byte("x"))
	require.ErrorIs(t, err, errors.ErrNotRunning)
}

func TestEcho_RoundTrip(t *testing.T) {
	requireUnix(t)

	s := New(discardLogger(), &config.Options{AgentPath: lookPath(t, "cat")})
	require.NoError(t, s.Start(context.Background()))

	payload := []byte("Content-Length: 2\r\n\r\n{}")
	require.NoError(t, s.Write(context.Background(), payload))

	var got []byte

	deadline := time.After(5 * time.Second)
	for len(got) < len(payload) {
		select {
		case chunk := <-s.Chunks():
			got = append(got, chunk...)
		case <-deadline:
			t.Fatalf("timed out, received %q", got)
		}
	}

	require.Equal(t, payload, got)

	require.NoError(t, s.Terminate())
	waitDone(t, s)

	require.NoError(t, s.Err(), "terminate is not an unexpected exit")
	require.ErrorIs(t, s.Write(context.Background(), []byte("x")), errors.ErrNotRunning)
}

func TestUnexpectedExit_ReportsProcessTerminated(t *testing.T) {
	requireUnix(t)

	var (
		mu    sync.Mutex
		lines []string
	)

	script := filepath.Join(t.TempDir(), "agent.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho 'fatal: boom' >&2\nexit 3\n"), 0o755))

	s := New(discardLogger(), &config.Options{
		AgentPath: script,
		Stderr: func(line string) {
			mu.Lock()
			defer mu.Unlock()

			lines = append(lines, line)
		},
	})
	require.NoError(t, s.Start(context.Background()))

	waitDone(t, s)

	termErr, ok := stderrors.AsType[*errors.ProcessTerminatedError](s.Err())
	require.True(t, ok, "got %v", s.Err())
	require.Equal(t, 3, termErr.ExitCode)
	require.Equal(t, "fatal: boom", termErr.Stderr)

	mu.Lock()
	require.Equal(t, []string{"fatal: boom"}, lines)
	mu.Unlock()

	require.ErrorIs(t, s.Write(context.Background(), []byte("x")), errors.ErrNotRunning)

	// Chunks is closed at EOF.
	_, open := <-s.Chunks()
	require.False(t, open)
}

func TestTerminate_Idempotent(t *testing.T) {
	requireUnix(t)

	s := New(discardLogger(), &config.Options{AgentPath: lookPath(t, "cat")})
	require.NoError(t, s.Start(context.Background()))

	require.NoError(t, s.Terminate())
	require.NoError(t, s.Terminate())

	waitDone(t, s)
}

func TestTerminate_BeforeStart(t *testing.T) {
	s := New(discardLogger(), &config.Options{})

	require.NoError(t, s.Terminate())
	require.NoError(t, s.Terminate())
}

func TestStart_Twice(t *testing.T) {
	requireUnix(t)

	s := New(discardLogger(), &config.Options{AgentPath: lookPath(t, "cat")})
	require.NoError(t, s.Start(context.Background()))

	t.Cleanup(func() { _ = s.Terminate() })

	require.ErrorIs(t, s.Start(context.Background()), errors.ErrAlreadyConnected)
}

func TestConcurrentWrites_AreSerialized(t *testing.T) {
	requireUnix(t)

	s := New(discardLogger(), &config.Options{AgentPath: lookPath(t, "cat")})
	require.NoError(t, s.Start(context.Background()))

	t.Cleanup(func() { _ = s.Terminate() })

	const numWriters = 10

	var wg sync.WaitGroup

	for i := range numWriters {
		wg.Go(func() {
			msg := bytes.Repeat([]byte(strconv.Itoa(i)), 100)
			assert.NoError(t, s.Write(context.Background(), msg))
		})
	}

	wg.Wait()

	var total int

	deadline := time.After(5 * time.Second)
	for total < numWriters*100 {
		select {
		case chunk := <-s.Chunks():
			total += len(chunk)
		case <-deadline:
			t.Fatalf("timed out after %d bytes", total)
		}
	}
}

func TestWrite_CancelledContext(t *testing.T) {
	requireUnix(t)

	s := New(discardLogger(), &config.Options{AgentPath: lookPath(t, "cat")})
	require.NoError(t, s.Start(context.Background()))

	t.Cleanup(func() { _ = s.Terminate() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, s.Write(ctx, []byte("x")), context.Canceled)
}
