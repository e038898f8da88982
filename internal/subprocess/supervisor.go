package subprocess

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/acp-client-go/internal/cli"
	"github.com/wagiedev/acp-client-go/internal/config"
	"github.com/wagiedev/acp-client-go/internal/errors"
)

const (
	// readBufferSize is the size of each stdout read.
	readBufferSize = 32 * 1024
	// chunkBacklog is how many stdout chunks may queue before the pump blocks.
	chunkBacklog = 64
	// maxStderrBufferSize is the maximum size for the stderr buffer.
	// Stderr reading continues indefinitely (callback receives all lines),
	// but the buffer stops growing after this limit to prevent unbounded memory usage.
	maxStderrBufferSize = 1024 * 1024 // 1MB
	// killDelay is how long Terminate waits for a graceful exit before SIGKILL.
	killDelay = 5 * time.Second
	// writeAbandonTimeout bounds how long a cancelled write is waited on.
	writeAbandonTimeout = time.Second
)

// Supervisor implements config.Transport by spawning the agent as a subprocess.
type Supervisor struct {
	log            *slog.Logger
	options        *config.Options
	stderrCallback func(string)

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	chunks     chan []byte
	done       chan struct{}
	terminated chan struct{}

	writeMu sync.Mutex // Serializes stdin writes

	mu          sync.Mutex // Protects the fields below
	started     bool
	exited      bool
	terminating bool
	stdinClosed bool
	exitErr     error

	stderrMu     sync.Mutex
	stderrBuffer strings.Builder

	terminateOnce sync.Once
}

// Compile-time verification that Supervisor implements the Transport interface.
var _ config.Transport = (*Supervisor)(nil)

// New creates a supervisor for the agent described by options.
//
// Discovery is deferred to Start, which returns *errors.BinaryNotFoundError
// if the executable cannot be located.
func New(log *slog.Logger, options *config.Options) *Supervisor {
	return &Supervisor{
		log:            log.With("component", "supervisor"),
		options:        options,
		stderrCallback: options.Stderr,
		chunks:         make(chan []byte, chunkBacklog),
		done:           make(chan struct{}),
		terminated:     make(chan struct{}),
	}
}

// Start launches the agent process.
//
// Returns *errors.BinaryNotFoundError if the executable does not exist and
// *errors.LaunchError if the OS refuses to start it. The process outlives
// ctx; use Terminate to stop it.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()

		return errors.ErrAlreadyConnected
	}
	s.mu.Unlock()

	discoverer := cli.NewDiscoverer(&cli.Config{
		AgentPath: s.options.Path(),
		Command:   s.options.Command(),
		Logger:    s.log,
	})

	agentPath, err := discoverer.Discover(ctx)
	if err != nil {
		return err
	}

	cwd := s.options.Cwd
	if cwd == "" {
		cwd, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
	}

	args := cli.BuildArgs(s.options)
	s.log.Info("Starting agent subprocess", "agent_path", agentPath, "args", args, "cwd", cwd)

	//nolint:gosec // G204: launching the configured agent with dynamic args is the point
	cmd := exec.Command(agentPath, args...)
	cmd.Dir = cwd
	cmd.Env = cli.BuildEnvironment(s.options)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return &errors.LaunchError{Path: agentPath, Err: fmt.Errorf("stdin pipe: %w", err)}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &errors.LaunchError{Path: agentPath, Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &errors.LaunchError{Path: agentPath, Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		s.log.Error("Failed to start agent process", "error", err)

		return &errors.LaunchError{Path: agentPath, Err: err}
	}

	s.mu.Lock()
	s.cmd = cmd
	s.stdin = stdin
	s.stdout = stdout
	s.stderr = stderr
	s.started = true
	s.mu.Unlock()

	s.log.Info("Agent subprocess started", "pid", cmd.Process.Pid)

	var pumps errgroup.Group

	pumps.Go(s.pumpStderr)
	pumps.Go(s.pumpStdout)

	go func() {
		// Pipes must be drained before Wait; see os/exec.Cmd.StdoutPipe.
		if err := pumps.Wait(); err != nil {
			s.log.Debug("Pipe pump stopped with error", "error", err)
		}

		s.wait()
	}()

	return nil
}

func (s *Supervisor) pumpStdout() error {
	defer close(s.chunks)

	buf := make([]byte, readBufferSize)

	for {
		n, err := s.stdout.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])

			select {
			case s.chunks <- chunk:
			case <-s.terminated:
				return nil
			}
		}

		if err != nil {
			if stderrors.Is(err, io.EOF) || stderrors.Is(err, os.ErrClosed) {
				return nil
			}

			return fmt.Errorf("read stdout: %w", err)
		}
	}
}

func (s *Supervisor) pumpStderr() error {
	scanner := bufio.NewScanner(s.stderr)
	for scanner.Scan() {
		line := scanner.Text()

		s.stderrMu.Lock()
		if s.stderrBuffer.Len() < maxStderrBufferSize {
			if s.stderrBuffer.Len() > 0 {
				s.stderrBuffer.WriteString("\n")
			}

			s.stderrBuffer.WriteString(line)
		}
		s.stderrMu.Unlock()

		if s.stderrCallback != nil {
			s.stderrCallback(line)
		}
	}

	// Scanner errors are expected once the process has been killed.
	if err := scanner.Err(); err != nil {
		s.log.Debug("Stderr scanner error", "error", err)
	}

	return nil
}

func (s *Supervisor) wait() {
	err := s.cmd.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.exited = true

	if s.terminating {
		s.log.Debug("Agent process exited after terminate")
	} else {
		exitCode := 0
		if exitErr, ok := stderrors.AsType[*exec.ExitError](err); ok {
			exitCode = exitErr.ExitCode()
		}

		s.exitErr = &errors.ProcessTerminatedError{
			ExitCode: exitCode,
			Stderr:   s.Stderr(),
			Err:      err,
		}

		s.log.Error("Agent process exited unexpectedly", "exit_code", exitCode, "error", err)
	}

	close(s.done)
}

// Chunks implements config.Transport.
func (s *Supervisor) Chunks() <-chan []byte {
	return s.chunks
}

// Done implements config.Transport.
func (s *Supervisor) Done() <-chan struct{} {
	return s.done
}

// Err implements config.Transport.
func (s *Supervisor) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.exitErr
}

// Stderr returns the buffered stderr output.
func (s *Supervisor) Stderr() string {
	s.stderrMu.Lock()
	defer s.stderrMu.Unlock()

	return s.stderrBuffer.String()
}

// Write sends data to the agent's stdin.
//
// Writes are serialized. A write blocked on a full pipe honours ctx; on
// cancellation stdin is closed to unblock it and later writes fail with
// ErrNotRunning.
func (s *Supervisor) Write(ctx context.Context, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	stdin := s.stdin
	usable := s.started && !s.exited && !s.terminating && !s.stdinClosed
	s.mu.Unlock()

	if !usable {
		return errors.ErrNotRunning
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.log.Debug("Writing to agent stdin", "data_len", len(data))

	// Write in goroutine to respect context cancellation
	result := make(chan error, 1)

	go func() {
		_, err := stdin.Write(data)
		result <- err
	}()

	select {
	case err := <-result:
		if err == nil {
			return nil
		}

		if stderrors.Is(err, os.ErrClosed) || stderrors.Is(err, syscall.EPIPE) {
			return fmt.Errorf("write to stdin: %w", errors.ErrNotRunning)
		}

		s.log.Error("Failed to write to agent stdin", "error", err)

		return fmt.Errorf("write to stdin: %w", err)

	case <-ctx.Done():
		s.log.Debug("Context cancelled during write, closing stdin")

		s.mu.Lock()
		s.stdinClosed = true
		s.mu.Unlock()

		_ = stdin.Close()

		select {
		case <-result:
		case <-time.After(writeAbandonTimeout):
			s.log.Warn("Write goroutine did not exit after stdin close")
		}

		return ctx.Err()
	}
}

// Terminate signals the agent to exit and returns without waiting.
// A process still alive after killDelay is killed.
func (s *Supervisor) Terminate() error {
	var err error

	s.terminateOnce.Do(func() {
		s.mu.Lock()
		s.terminating = true
		cmd := s.cmd
		stdin := s.stdin
		s.mu.Unlock()

		close(s.terminated)

		if cmd == nil || cmd.Process == nil {
			return
		}

		s.log.Debug("Terminating agent process", "pid", cmd.Process.Pid)

		if stdin != nil {
			_ = stdin.Close()
		}

		if sigErr := cmd.Process.Signal(syscall.SIGTERM); sigErr != nil {
			if killErr := cmd.Process.Kill(); killErr != nil && !stderrors.Is(killErr, os.ErrProcessDone) {
				err = fmt.Errorf("kill agent process (pid %d): %w", cmd.Process.Pid, killErr)
			}

			return
		}

		time.AfterFunc(killDelay, func() {
			select {
			case <-s.done:
			default:
				_ = cmd.Process.Kill()
			}
		})
	})

	return err
}
