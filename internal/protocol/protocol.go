package protocol

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"

	"github.com/wagiedev/acp-client-go/internal/errors"
	"github.com/wagiedev/acp-client-go/internal/framing"
)

// JSON-RPC error codes used in replies to agent calls.
const (
	codeMethodNotFound int64 = -32601
	codeInternalError  int64 = -32603
)

// Transport defines the minimal interface needed for protocol operations.
//
// This interface is satisfied by subprocess.Supervisor but allows for testing
// with mock transports.
type Transport interface {
	Chunks() <-chan []byte
	Write(ctx context.Context, data []byte) error
	Done() <-chan struct{}
	Err() error
}

// NotificationHandler receives agent notifications in wire order. It runs on
// the read loop and must not block.
type NotificationHandler func(ctx context.Context, method string, params json.RawMessage)

// RequestHandler answers an agent call. The returned value is sent as the
// JSON-RPC result; an error is sent as an internal error reply.
type RequestHandler func(ctx context.Context, params json.RawMessage) (any, error)

// FrameErrorHandler is told about undecodable frames.
type FrameErrorHandler func(err error)

// Option configures a Controller.
type Option func(*Controller)

// WithNotificationHandler sets the receiver for agent notifications.
func WithNotificationHandler(h NotificationHandler) Option {
	return func(c *Controller) {
		c.notify = h
	}
}

// WithFrameErrorHandler sets the receiver for malformed frame errors.
func WithFrameErrorHandler(h FrameErrorHandler) Option {
	return func(c *Controller) {
		c.onFrameError = h
	}
}

// Controller correlates JSON-RPC requests and responses with an ACP agent.
//
// The Controller handles:
//   - Sending requests with monotonic integer ids
//   - Routing responses to the waiting request exactly once
//   - Request timeout enforcement
//   - Dispatching notifications to the injected handler
//   - Answering agent calls through registered handlers
//   - Failing every waiter when the agent process terminates
//
// The Controller must be started with Start() before use and manages its own
// goroutine for reading and routing messages.
type Controller struct {
	log       *slog.Logger
	transport Transport
	decoder   *framing.Decoder

	notify       NotificationHandler
	onFrameError FrameErrorHandler

	nextID atomic.Int64

	// Request tracking
	pendingMu sync.Mutex
	pending   map[int64]*pendingRequest

	// Handler registry for agent calls
	handlersMu sync.RWMutex
	handlers   map[string]RequestHandler

	// Fatal error handling - stores error and broadcasts via done channel
	errMu    sync.RWMutex
	fatalErr error

	// Lifecycle management
	startOnce      sync.Once
	closeOnce      sync.Once
	done           chan struct{}
	handlerCtx     context.Context
	cancelHandlers context.CancelFunc
	wg             sync.WaitGroup
}

// pendingRequest tracks an outgoing request awaiting response.
type pendingRequest struct {
	method   string
	response chan *jsonrpc.Response
}

// NewController creates a new protocol controller.
//
// The logger will receive debug, info, warn, and error messages during
// protocol operations. The transport must be started before calling Start().
func NewController(log *slog.Logger, transport Transport, opts ...Option) *Controller {
	handlerCtx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		log:            log.With("component", "protocol"),
		transport:      transport,
		decoder:        framing.NewDecoder(),
		pending:        make(map[int64]*pendingRequest, 8),
		handlers:       make(map[string]RequestHandler, 4),
		done:           make(chan struct{}),
		handlerCtx:     handlerCtx,
		cancelHandlers: cancel,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// closeDone safely closes the done channel exactly once.
func (c *Controller) closeDone() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// SetFatalError stores a fatal error and broadcasts to all waiters by closing done.
func (c *Controller) SetFatalError(err error) {
	c.errMu.Lock()

	if c.fatalErr == nil {
		c.fatalErr = err
	}

	c.errMu.Unlock()

	c.closeDone()
}

// FatalError returns the fatal error if one occurred.
func (c *Controller) FatalError() error {
	c.errMu.RLock()
	defer c.errMu.RUnlock()

	return c.fatalErr
}

// Done returns a channel that is closed when the controller stops.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Pending returns the number of requests awaiting a response.
func (c *Controller) Pending() int {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	return len(c.pending)
}

// Start begins reading from the transport and routing messages.
//
// The read loop stops when ctx is cancelled, Stop is called, or the
// transport terminates. Calling Start more than once has no effect.
func (c *Controller) Start(ctx context.Context) error {
	select {
	case <-c.done:
		return errors.ErrControllerStopped
	default:
	}

	c.startOnce.Do(func() {
		c.log.Debug("Starting protocol controller")

		c.wg.Add(1)

		go c.readLoop(ctx)

		c.log.Info("Protocol controller started")
	})

	return nil
}

// Stop shuts down the controller, failing outstanding requests with
// ErrControllerStopped. It's safe to call Stop multiple times.
func (c *Controller) Stop() {
	c.log.Debug("Stopping protocol controller")

	c.closeDone()
	c.cancelHandlers()
	c.wg.Wait()

	c.log.Info("Protocol controller stopped")
}

// RegisterHandler registers a handler for agent calls with the given method.
// Registering the same method twice overrides the previous handler.
func (c *Controller) RegisterHandler(method string, handler RequestHandler) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()

	c.log.Debug("Registering call handler", "method", method)
	c.handlers[method] = handler
}

// SendRequest sends a request and waits for its response.
//
// A timeout of zero waits until the response arrives, ctx is done, or the
// controller stops. A response carrying an error is returned as
// *errors.ProtocolError. If the agent process terminates, the returned error
// wraps *errors.ProcessTerminatedError.
func (c *Controller) SendRequest(
	ctx context.Context,
	method string,
	params any,
	timeout time.Duration,
) (json.RawMessage, error) {
	select {
	case <-c.done:
		return nil, c.stoppedError(method)
	default:
	}

	id := c.nextID.Add(1)

	req, err := framing.NewRequest(id, method, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	data, err := framing.Encode(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	pending := &pendingRequest{
		method:   method,
		response: make(chan *jsonrpc.Response, 1),
	}

	c.pendingMu.Lock()
	c.pending[id] = pending
	c.pendingMu.Unlock()

	c.log.Debug("Sending request", "request_id", id, "method", method)

	if err := c.transport.Write(ctx, data); err != nil {
		c.forget(id)
		c.log.Error("Failed to send request", "request_id", id, "method", method, "error", err)

		return nil, fmt.Errorf("send %s: %w", method, err)
	}

	var timeoutCh <-chan time.Time

	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		timeoutCh = timer.C
	}

	select {
	case resp := <-pending.response:
		if resp.Error != nil {
			perr := framing.ProtocolErrorFrom(method, resp.Error)
			c.log.Warn("Request returned error", "request_id", id, "method", method, "error", perr.Message)

			return nil, perr
		}

		c.log.Debug("Received response", "request_id", id, "method", method)

		return resp.Result, nil

	case <-c.done:
		c.forget(id)

		return nil, c.stoppedError(method)

	case <-timeoutCh:
		c.forget(id)
		c.log.Warn("Request timed out", "request_id", id, "method", method, "timeout", timeout)

		return nil, fmt.Errorf("%s: %w after %s", method, errors.ErrRequestTimeout, timeout)

	case <-ctx.Done():
		c.forget(id)
		c.log.Debug("Request cancelled", "request_id", id, "method", method)

		return nil, ctx.Err()
	}
}

// Notify sends an id-less notification to the agent.
func (c *Controller) Notify(ctx context.Context, method string, params any) error {
	req, err := framing.NewNotification(method, params)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	data, err := framing.Encode(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	c.log.Debug("Sending notification", "method", method)

	if err := c.transport.Write(ctx, data); err != nil {
		return fmt.Errorf("send %s: %w", method, err)
	}

	return nil
}

func (c *Controller) forget(id int64) {
	c.pendingMu.Lock()
	delete(c.pending, id)
	c.pendingMu.Unlock()
}

func (c *Controller) stoppedError(method string) error {
	if err := c.FatalError(); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	return fmt.Errorf("%s: %w", method, errors.ErrControllerStopped)
}

// readLoop feeds transport chunks through the decoder and routes messages.
func (c *Controller) readLoop(ctx context.Context) {
	defer c.wg.Done()
	defer c.log.Debug("Protocol read loop stopped")

	chunks := c.transport.Chunks()

	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				c.log.Debug("Transport output closed")
				c.awaitTermination(ctx)

				return
			}

			c.feed(ctx, chunk)

		case <-c.transport.Done():
			c.drain(ctx, chunks)
			c.terminated()

			return

		case <-c.done:
			c.log.Debug("Protocol controller stop signal received")

			return

		case <-ctx.Done():
			c.log.Debug("Context cancelled in protocol read loop")

			return
		}
	}
}

// drain routes chunks already buffered when the process exited.
func (c *Controller) drain(ctx context.Context, chunks <-chan []byte) {
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				return
			}

			c.feed(ctx, chunk)
		default:
			return
		}
	}
}

// awaitTermination waits for the process to exit after stdout closed.
func (c *Controller) awaitTermination(ctx context.Context) {
	select {
	case <-c.transport.Done():
		c.terminated()
	case <-c.done:
	case <-ctx.Done():
	}
}

// terminated fails every waiter with the process exit error.
func (c *Controller) terminated() {
	err := c.transport.Err()
	if err == nil {
		err = &errors.ProcessTerminatedError{}
	}

	c.log.Warn("Agent process terminated", "error", err, "pending", c.Pending())
	c.SetFatalError(err)
}

func (c *Controller) feed(ctx context.Context, chunk []byte) {
	msgs, err := c.decoder.Feed(chunk)
	if err != nil {
		c.log.Warn("Dropped malformed frame", "error", err)

		if c.onFrameError != nil {
			c.onFrameError(err)
		}
	}

	for _, msg := range msgs {
		c.handleMessage(ctx, msg)
	}
}

// handleMessage routes a message based on its kind.
func (c *Controller) handleMessage(ctx context.Context, msg jsonrpc.Message) {
	switch framing.Classify(msg) {
	case framing.KindResponse:
		resp, _ := msg.(*jsonrpc.Response)
		c.handleResponse(resp)

	case framing.KindNotification:
		req, _ := msg.(*jsonrpc.Request)
		c.log.Debug("Received notification", "method", req.Method)

		if c.notify != nil {
			c.notify(ctx, req.Method, req.Params)
		}

	case framing.KindCall:
		req, _ := msg.(*jsonrpc.Request)
		c.handleCall(req)

	default:
		c.log.Warn("Ignoring message of unknown kind", "type", fmt.Sprintf("%T", msg))
	}
}

// handleResponse routes a response to the waiting request.
func (c *Controller) handleResponse(resp *jsonrpc.Response) {
	id, ok := framing.IDValue(resp.ID)
	if !ok {
		c.log.Warn("Response with non-numeric id", "id", resp.ID.Raw())

		return
	}

	// Find and claim pending request atomically
	c.pendingMu.Lock()

	pending, exists := c.pending[id]
	if exists {
		delete(c.pending, id)
	}

	c.pendingMu.Unlock()

	if !exists {
		c.log.Warn("No pending request for response", "request_id", id)

		return
	}

	// Send to waiting goroutine (we own it now, blocking is safe since channel is buffered)
	pending.response <- resp
}

// handleCall invokes the registered handler for an agent call.
func (c *Controller) handleCall(req *jsonrpc.Request) {
	c.handlersMu.RLock()
	handler, exists := c.handlers[req.Method]
	c.handlersMu.RUnlock()

	c.log.Debug("Received call from agent", "method", req.Method, "id", req.ID.Raw())

	// Replies are written off the read loop so a full stdin pipe cannot
	// stall message routing.
	c.wg.Go(func() {
		ctx := c.handlerCtx

		if !exists {
			c.log.Warn("No handler registered for call", "method", req.Method)
			c.sendError(ctx, req.ID, codeMethodNotFound, "method not found: "+req.Method)

			return
		}

		result, err := handler(ctx, req.Params)
		if err != nil {
			c.log.Warn("Call handler returned error", "method", req.Method, "error", err)
			c.sendError(ctx, req.ID, codeInternalError, err.Error())

			return
		}

		c.sendResult(ctx, req.ID, result)
	})
}

func (c *Controller) sendResult(ctx context.Context, id jsonrpc.ID, result any) {
	resp, err := framing.NewResult(id, result)
	if err != nil {
		c.log.Error("Failed to build call result", "error", err)
		c.sendError(ctx, id, codeInternalError, err.Error())

		return
	}

	data, err := framing.Encode(resp)
	if err != nil {
		c.log.Error("Failed to encode call result", "error", err)

		return
	}

	c.write(ctx, data)
}

func (c *Controller) sendError(ctx context.Context, id jsonrpc.ID, code int64, message string) {
	data, err := framing.EncodeErrorReply(id, code, message)
	if err != nil {
		c.log.Error("Failed to encode error reply", "error", err)

		return
	}

	c.write(ctx, data)
}

func (c *Controller) write(ctx context.Context, data []byte) {
	if err := c.transport.Write(ctx, data); err != nil {
		// Expected once the agent has exited or the controller is stopping.
		if ctx.Err() != nil || stderrors.Is(err, errors.ErrNotRunning) {
			c.log.Debug("Could not send reply during shutdown", "error", err)

			return
		}

		c.log.Error("Failed to send reply", "error", err)
	}
}
