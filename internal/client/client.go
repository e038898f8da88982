package client

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wagiedev/acp-client-go/internal/config"
	"github.com/wagiedev/acp-client-go/internal/demux"
	"github.com/wagiedev/acp-client-go/internal/errors"
	"github.com/wagiedev/acp-client-go/internal/history"
	"github.com/wagiedev/acp-client-go/internal/hook"
	"github.com/wagiedev/acp-client-go/internal/message"
	"github.com/wagiedev/acp-client-go/internal/models"
	"github.com/wagiedev/acp-client-go/internal/prompt"
	"github.com/wagiedev/acp-client-go/internal/protocol"
	"github.com/wagiedev/acp-client-go/internal/stream"
	"github.com/wagiedev/acp-client-go/internal/subprocess"
)

// State is the engine's position in the session lifecycle.
type State int

const (
	// StateUninitialized means no agent has been started.
	StateUninitialized State = iota
	// StateInitializing means the initialize handshake is in flight.
	StateInitializing
	// StateInitialized means the handshake succeeded.
	StateInitialized
	// StateSessionCreating means session/new is in flight.
	StateSessionCreating
	// StateSessionReady means a session exists and no turn is active.
	StateSessionReady
	// StatePrompting means a turn is active.
	StatePrompting
	// StateClosed means the agent is gone. Connect starts over.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateInitialized:
		return "initialized"
	case StateSessionCreating:
		return "session_creating"
	case StateSessionReady:
		return "session_ready"
	case StatePrompting:
		return "prompting"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// activeTurn is the engine's bookkeeping for the turn in flight.
type activeTurn struct {
	*stream.Turn

	sessionID  string
	stopReason atomic.Value // string
}

func (t *activeTurn) reason() string {
	s, _ := t.stopReason.Load().(string)

	return s
}

// Client drives one ACP agent through initialize, session creation, model
// and mode selection, and prompt turns.
type Client struct {
	log     *slog.Logger
	options *config.Options
	hooks   *hook.Registry

	// opMu serializes Connect, selection, and turn start.
	opMu sync.Mutex

	// mu protects everything below.
	mu         sync.Mutex
	state      State
	gen        uint64
	transport  config.Transport
	controller *protocol.Controller
	session    *protocol.Session
	sessionID  string
	catalog    models.Catalog
	model      string
	mode       string
	turn       *activeTurn
	tracker    *demux.Tracker
}

// New creates an engine. Nothing is started until Connect or the first
// SendStream.
func New(options *config.Options) *Client {
	if options == nil {
		options = &config.Options{}
	}

	// Extract logger from options, defaulting to a no-op logger
	log := options.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	log = log.With("component", "client")

	return &Client{
		log:     log,
		options: options,
		hooks:   hook.NewRegistry(log, options.Hooks),
		tracker: demux.NewTracker(log, options.Delegation()),
	}
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Connect starts the agent, performs the handshake, creates a session, and
// applies the default model and mode.
//
// Returns *errors.BinaryNotFoundError or *errors.LaunchError if the agent
// cannot be started, and *errors.InitializeError if the handshake or session
// creation fails. The engine is Closed after any failure and Connect may be
// called again.
func (c *Client) Connect(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	return c.connect(ctx)
}

// connect requires opMu.
func (c *Client) connect(ctx context.Context) error {
	c.mu.Lock()

	if c.state != StateUninitialized && c.state != StateClosed {
		c.mu.Unlock()

		return errors.ErrAlreadyConnected
	}

	c.gen++
	gen := c.gen
	c.state = StateInitializing
	c.mu.Unlock()

	transport := c.options.Transport
	if transport == nil {
		transport = subprocess.New(c.log, c.options)
	} else {
		c.log.Debug("Using injected custom transport")
	}

	if err := transport.Start(ctx); err != nil {
		c.abort(gen, nil, transport)

		return err
	}

	controller := protocol.NewController(c.log, transport,
		protocol.WithNotificationHandler(c.notificationHandler(gen)),
		protocol.WithFrameErrorHandler(func(err error) {
			c.log.Warn("Discarded malformed agent output", "error", err)
		}),
	)

	// The read loop lives until Close or process exit, not until ctx ends.
	if err := controller.Start(context.Background()); err != nil {
		c.abort(gen, controller, transport)

		return fmt.Errorf("start protocol controller: %w", err)
	}

	session := protocol.NewSession(c.log, controller, c.options)
	session.RegisterHandlers()

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		c.abort(gen, controller, transport)

		return errors.ErrClientClosed
	}

	c.transport = transport
	c.controller = controller
	c.session = session
	c.mu.Unlock()

	go c.watch(gen, controller, transport)

	c.log.Info("Initializing agent")

	if err := session.Initialize(ctx); err != nil {
		c.abort(gen, controller, transport)

		return &errors.InitializeError{Stage: protocol.MethodInitialize, Err: err}
	}

	if !c.advance(gen, StateInitialized) || !c.advance(gen, StateSessionCreating) {
		return errors.ErrClientClosed
	}

	cwd := c.options.Cwd
	if cwd == "" {
		var err error

		cwd, err = os.Getwd()
		if err != nil {
			c.abort(gen, controller, transport)

			return &errors.InitializeError{Stage: protocol.MethodSessionNew, Err: err}
		}
	}

	sess, err := session.NewSession(ctx, cwd)
	if err != nil {
		c.abort(gen, controller, transport)

		return &errors.InitializeError{Stage: protocol.MethodSessionNew, Err: err}
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()

		return errors.ErrClientClosed
	}

	c.sessionID = sess.ID
	c.catalog = sess.Catalog
	c.model = sess.CurrentModelID
	c.mode = sess.CurrentModeID
	c.state = StateSessionReady
	c.mu.Unlock()

	c.applyDefaults(ctx, session, sess)

	c.log.Info("Session ready", "session_id", sess.ID, "model", c.SelectedModel(), "mode", c.SelectedMode())

	return nil
}

// advance moves to next if the connection generation is still current.
func (c *Client) advance(gen uint64, next State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		return false
	}

	c.state = next

	return true
}

// abort tears down a connection attempt that failed.
func (c *Client) abort(gen uint64, controller *protocol.Controller, transport config.Transport) {
	c.mu.Lock()
	if c.gen == gen {
		c.gen++
		c.state = StateClosed
		c.transport = nil
		c.controller = nil
		c.session = nil
	}
	c.mu.Unlock()

	if controller != nil {
		controller.Stop()
	}

	if err := transport.Terminate(); err != nil {
		c.log.Debug("Terminate after failed connect", "error", err)
	}
}

// applyDefaults selects the preferred or current model and mode. Failures
// are logged and rolled back; the session stays usable.
func (c *Client) applyDefaults(ctx context.Context, session *protocol.Session, sess *models.Session) {
	if m, ok := sess.DefaultModel(c.options.PreferredModel); ok && m.ID != sess.CurrentModelID {
		c.setModel(m.ID)

		if err := session.SetModel(ctx, sess.ID, m.ID); err != nil {
			c.log.Warn("Default model selection failed", "model", m.ID, "error", err)
			c.setModel(sess.CurrentModelID)
		}
	} else if ok {
		c.setModel(m.ID)
	}

	if m, ok := sess.DefaultMode(c.options.PreferredMode); ok && m.ID != sess.CurrentModeID {
		c.setMode(m.ID)

		if err := session.SetMode(ctx, sess.ID, m.ID); err != nil {
			c.log.Warn("Default mode selection failed", "mode", m.ID, "error", err)
			c.setMode(sess.CurrentModeID)
		}
	} else if ok {
		c.setMode(m.ID)
	}
}

func (c *Client) setModel(id string) {
	c.mu.Lock()
	c.model = id
	c.mu.Unlock()
}

func (c *Client) setMode(id string) {
	c.mu.Lock()
	c.mode = id
	c.mu.Unlock()
}

// watch closes the engine when the agent process dies.
func (c *Client) watch(gen uint64, controller *protocol.Controller, transport config.Transport) {
	<-controller.Done()

	err := controller.FatalError()
	if err == nil {
		// Stopped by Close or a failed connect.
		return
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()

		return
	}

	c.gen++
	turn := c.turn
	c.turn = nil
	c.state = StateClosed
	c.transport = nil
	c.controller = nil
	c.session = nil
	c.sessionID = ""
	c.mu.Unlock()

	c.log.Error("Agent process terminated", "error", err)

	if turn != nil {
		turn.Fail(err)
	}

	_ = transport.Terminate()
}

// notificationHandler routes session/update notifications for connection gen.
func (c *Client) notificationHandler(gen uint64) protocol.NotificationHandler {
	return func(ctx context.Context, method string, params json.RawMessage) {
		if method != protocol.MethodSessionUpdate {
			c.log.Debug("Ignoring agent notification", "method", method)

			return
		}

		n, err := message.Parse(c.log, params)
		if stderrors.Is(err, errors.ErrUnknownUpdateKind) {
			return
		}

		if err != nil {
			c.log.Warn("Failed to parse session update", "error", err)

			return
		}

		c.mu.Lock()

		if c.gen != gen || (n.SessionID != "" && n.SessionID != c.sessionID) {
			c.mu.Unlock()
			c.log.Debug("Dropping update for stale session", "session_id", n.SessionID)

			return
		}

		res := c.tracker.Dispatch(n.Update)
		turn := c.turn
		sessionID := c.sessionID

		if res.ModeID != "" {
			c.mode = res.ModeID
		}

		c.mu.Unlock()

		if res.Text != "" {
			if turn == nil || !turn.Push(res.Text) {
				c.log.Debug("Dropping text outside an active turn", "len", len(res.Text))
			}
		}

		c.fireToolHooks(ctx, sessionID, res)

		if res.TurnComplete && turn != nil {
			turn.Complete()
		}
	}
}

func (c *Client) fireToolHooks(ctx context.Context, sessionID string, res demux.Result) {
	if res.Tool == nil {
		return
	}

	call := res.Tool.Call
	base := hook.BaseInput{SessionID: sessionID}

	switch res.Tool.Kind {
	case demux.EventStarted:
		c.hooks.Fire(ctx, &hook.ToolCallStartedInput{
			BaseInput:  base,
			ToolCallID: call.ID,
			ToolName:   call.Name,
			ToolType:   call.ToolType,
			Query:      call.Query,
		})
	case demux.EventUpdated:
		c.hooks.Fire(ctx, &hook.ToolCallUpdatedInput{
			BaseInput:  base,
			ToolCallID: call.ID,
			ToolName:   call.Name,
			Status:     string(call.Status),
			Query:      call.Query,
		})
	}

	if res.DelegationStarted {
		c.hooks.Fire(ctx, &hook.DelegationStartedInput{
			BaseInput:    base,
			ToolCallID:   call.ID,
			SubagentType: call.Query,
		})
	}

	if res.DelegationEnded {
		c.hooks.Fire(ctx, &hook.DelegationEndedInput{
			BaseInput:  base,
			ToolCallID: call.ID,
			Status:     string(call.Status),
		})
	}
}

// SendStream starts a turn and returns its response text as a sequence.
//
// The engine connects first if it has no agent. ErrPromptInFlight is
// returned while another turn is active. Cancelling ctx or stopping the
// iteration early detaches the consumer; the turn keeps its slot until the
// agent finishes it. Use Cancel to ask the agent to stop.
func (c *Client) SendStream(ctx context.Context, req *prompt.Request) (iter.Seq2[string, error], error) {
	blocks := prompt.Build(req)
	if len(blocks) == 0 {
		return nil, errors.ErrEmptyPrompt
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	if state := c.State(); state == StateUninitialized || state == StateClosed {
		if err := c.connect(ctx); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()

	switch c.state {
	case StatePrompting:
		c.mu.Unlock()

		return nil, errors.ErrPromptInFlight
	case StateSessionReady:
	default:
		c.mu.Unlock()

		return nil, errors.ErrNoActiveSession
	}

	turn := &activeTurn{sessionID: c.sessionID}
	turn.Turn = stream.NewTurn(func(*stream.Turn) { c.finishTurn(turn) })

	c.tracker.Reset()
	c.turn = turn
	c.state = StatePrompting
	session := c.session
	c.mu.Unlock()

	c.log.Info("Starting turn", "turn_id", turn.ID(), "session_id", turn.sessionID, "blocks", len(blocks))

	c.record(ctx, turn.sessionID, history.RoleUser, req.Text)

	go c.runPrompt(session, turn, blocks)

	return turn.Seq(ctx), nil
}

// runPrompt issues session/prompt and finishes or arms the turn from its
// response.
func (c *Client) runPrompt(session *protocol.Session, turn *activeTurn, blocks []message.ContentBlock) {
	// The request is bound to the turn, not to the consumer's context.
	res, err := session.Prompt(context.Background(), turn.sessionID, blocks)
	if err != nil {
		c.log.Warn("Prompt failed", "turn_id", turn.ID(), "error", err)
		turn.Fail(err)

		return
	}

	turn.stopReason.Store(res.StopReason)

	// Without a stop reason the response says nothing about completion;
	// the turn waits for turn_complete, cancellation or agent exit.
	if res.StopReason == "" {
		c.log.Debug("Prompt returned without stop reason", "turn_id", turn.ID())

		return
	}

	grace := c.options.Grace()
	c.log.Debug("Prompt returned", "turn_id", turn.ID(), "stop_reason", res.StopReason, "grace", grace)
	turn.ArmGrace(grace)
}

// finishTurn releases the turn slot and records the outcome.
func (c *Client) finishTurn(turn *activeTurn) {
	c.mu.Lock()
	if c.turn == turn {
		c.turn = nil

		if c.state == StatePrompting {
			c.state = StateSessionReady
		}
	}
	c.mu.Unlock()

	err := turn.Err()
	duration := time.Since(turn.Started())

	if err == nil {
		c.log.Info("Turn completed", "turn_id", turn.ID(), "stop_reason", turn.reason(), "duration", duration)
		c.record(context.Background(), turn.sessionID, history.RoleAssistant, turn.Text())
	} else {
		c.log.Warn("Turn failed", "turn_id", turn.ID(), "error", err)
	}

	c.hooks.Fire(context.Background(), &hook.TurnCompletedInput{
		BaseInput:  hook.BaseInput{SessionID: turn.sessionID},
		TurnID:     turn.ID(),
		StopReason: turn.reason(),
		Duration:   duration,
		Err:        err,
	})
}

func (c *Client) record(ctx context.Context, sessionID string, role history.Role, content string) {
	if c.options.History == nil {
		return
	}

	if err := c.options.History.Append(ctx, history.NewRecord(sessionID, role, content)); err != nil {
		c.log.Warn("Failed to append history record", "role", role, "error", err)
	}
}

// Cancel asks the agent to stop the active turn. The turn still ends
// through the normal completion path.
func (c *Client) Cancel(ctx context.Context) error {
	c.mu.Lock()
	session := c.session
	sessionID := c.sessionID
	c.mu.Unlock()

	if session == nil || sessionID == "" {
		return errors.ErrNoActiveSession
	}

	c.log.Info("Cancelling turn", "session_id", sessionID)

	if err := session.Cancel(ctx, sessionID); err != nil {
		return fmt.Errorf("cancel: %w", err)
	}

	return nil
}

// SelectModel switches the session's model.
func (c *Client) SelectModel(ctx context.Context, id string) error {
	return c.selectOption(ctx, "model", id,
		func(cat *models.Catalog) bool {
			_, ok := models.FindModel(cat.Models, id)

			return ok
		},
		errors.ErrUnknownModel,
		func() *string { return &c.model },
		(*protocol.Session).SetModel,
	)
}

// SelectMode switches the session's mode.
func (c *Client) SelectMode(ctx context.Context, id string) error {
	return c.selectOption(ctx, "mode", id,
		func(cat *models.Catalog) bool {
			_, ok := models.FindMode(cat.Modes, id)

			return ok
		},
		errors.ErrUnknownMode,
		func() *string { return &c.mode },
		(*protocol.Session).SetMode,
	)
}

func (c *Client) selectOption(
	ctx context.Context,
	what, id string,
	known func(*models.Catalog) bool,
	unknownErr error,
	field func() *string,
	send func(*protocol.Session, context.Context, string, string) error,
) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()

	switch c.state {
	case StatePrompting:
		c.mu.Unlock()

		return errors.ErrPromptInFlight
	case StateSessionReady:
	default:
		c.mu.Unlock()

		return errors.ErrNoActiveSession
	}

	if !known(&c.catalog) {
		c.mu.Unlock()

		return fmt.Errorf("%w: %s", unknownErr, id)
	}

	selected := field()
	prev := *selected

	if prev == id {
		c.mu.Unlock()

		return nil
	}

	*selected = id
	gen := c.gen
	session := c.session
	sessionID := c.sessionID
	c.mu.Unlock()

	c.log.Info("Selecting "+what, what, id)

	if err := send(session, ctx, sessionID, id); err != nil {
		c.mu.Lock()
		if c.gen == gen {
			*field() = prev
		}
		c.mu.Unlock()

		return fmt.Errorf("select %s %q: %w", what, id, err)
	}

	return nil
}

// SessionID returns the active session id, or "".
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sessionID
}

// AvailableModels returns the session's model catalog.
func (c *Client) AvailableModels() []models.Model {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.catalog.Models)
}

// AvailableModes returns the session's mode catalog.
func (c *Client) AvailableModes() []models.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.catalog.Modes)
}

// SelectedModel returns the id of the model in effect.
func (c *Client) SelectedModel() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.model
}

// SelectedMode returns the id of the mode in effect.
func (c *Client) SelectedMode() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.mode
}

// ToolCalls returns the tool calls seen during the current or last turn.
func (c *Client) ToolCalls() []demux.ToolCall {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.tracker.Calls()
}

// ServerInfo returns the agent's initialize result.
// Returns nil if not connected.
func (c *Client) ServerInfo() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil
	}

	return c.session.GetInitializationResult()
}

// Close stops the agent and fails an active turn with ErrClientClosed.
// This method is safe to call multiple times. Connect may be called again
// afterwards.
func (c *Client) Close() error {
	c.mu.Lock()

	if c.transport == nil && (c.state == StateClosed || c.state == StateUninitialized) {
		c.mu.Unlock()

		return nil
	}

	c.gen++
	turn := c.turn
	controller := c.controller
	transport := c.transport
	c.turn = nil
	c.state = StateClosed
	c.transport = nil
	c.controller = nil
	c.session = nil
	c.sessionID = ""
	c.mu.Unlock()

	c.log.Info("Closing client")

	if turn != nil {
		turn.Fail(errors.ErrClientClosed)
	}

	if controller != nil {
		controller.Stop()
	}

	var closeErr error

	if transport != nil {
		closeErr = transport.Terminate()
	}

	c.log.Info("Client closed")

	return closeErr
}
