package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/wagiedev/acp-client-go/internal/config"
	"github.com/wagiedev/acp-client-go/internal/mcp"
	"github.com/wagiedev/acp-client-go/internal/message"
	"github.com/wagiedev/acp-client-go/internal/models"
	"github.com/wagiedev/acp-client-go/internal/permission"
)

// ACP method names.
const (
	MethodInitialize        = "initialize"
	MethodSessionNew        = "session/new"
	MethodSetModel          = "session/set_model"
	MethodSetMode           = "session/set_mode"
	MethodPrompt            = "session/prompt"
	MethodCancel            = "session/cancel"
	MethodSessionUpdate     = "session/update"
	MethodRequestPermission = "session/request_permission"
)

// ProtocolVersion is the ACP version sent in initialize.
const ProtocolVersion = 1

// PromptResult is the decoded session/prompt response.
type PromptResult struct {
	StopReason string `json:"stopReason"`
}

// Session encapsulates the typed ACP requests over a Controller and answers
// agent calls on behalf of the client.
type Session struct {
	log        *slog.Logger
	controller *Controller
	options    *config.Options

	// Server initialization result (protected by initMu)
	initMu               sync.RWMutex
	initializationResult map[string]any
}

// NewSession creates a new Session for protocol handling.
func NewSession(
	log *slog.Logger,
	controller *Controller,
	options *config.Options,
) *Session {
	return &Session{
		log:        log.With("component", "session"),
		controller: controller,
		options:    options,
	}
}

// RegisterHandlers registers handlers for agent calls.
// This must be called before Initialize().
func (s *Session) RegisterHandlers() {
	s.controller.RegisterHandler(MethodRequestPermission, s.HandleRequestPermission)
}

// Initialize performs the ACP handshake.
func (s *Session) Initialize(ctx context.Context) error {
	s.log.Debug("Sending initialize request")

	payload := map[string]any{
		"protocolVersion": ProtocolVersion,
		"clientCapabilities": map[string]any{
			"fs": map[string]any{
				"readTextFile":  false,
				"writeTextFile": false,
			},
			"terminal": false,
		},
	}

	resp, err := s.controller.SendRequest(ctx, MethodInitialize, payload, s.options.InitTimeout())
	if err != nil {
		return err
	}

	var result map[string]any
	if len(resp) > 0 {
		if err := json.Unmarshal(resp, &result); err != nil {
			return fmt.Errorf("decode initialize result: %w", err)
		}
	}

	s.initMu.Lock()
	s.initializationResult = result
	s.initMu.Unlock()

	return nil
}

// GetInitializationResult returns a copy of the agent's initialize result.
// Returns nil if not initialized.
func (s *Session) GetInitializationResult() map[string]any {
	s.initMu.RLock()
	defer s.initMu.RUnlock()

	if s.initializationResult == nil {
		return nil
	}

	return maps.Clone(s.initializationResult)
}

// NewSession creates an agent session rooted at cwd.
func (s *Session) NewSession(ctx context.Context, cwd string) (*models.Session, error) {
	payload := map[string]any{
		"cwd":        cwd,
		"mcpServers": mcp.Servers(s.options.MCPServers),
	}

	resp, err := s.controller.SendRequest(ctx, MethodSessionNew, payload, s.options.InitTimeout())
	if err != nil {
		return nil, err
	}

	sess, err := models.ParseSession(resp)
	if err != nil {
		return nil, err
	}

	s.log.Info("Session created",
		"session_id", sess.ID,
		"models", len(sess.Models),
		"modes", len(sess.Modes),
	)

	return sess, nil
}

// SetModel asks the agent to switch the session's model.
func (s *Session) SetModel(ctx context.Context, sessionID, modelID string) error {
	_, err := s.controller.SendRequest(ctx, MethodSetModel, map[string]any{
		"sessionId": sessionID,
		"modelId":   modelID,
	}, s.options.SelectTimeout())

	return err
}

// SetMode asks the agent to switch the session's mode.
func (s *Session) SetMode(ctx context.Context, sessionID, modeID string) error {
	_, err := s.controller.SendRequest(ctx, MethodSetMode, map[string]any{
		"sessionId": sessionID,
		"modeId":    modeID,
	}, s.options.SelectTimeout())

	return err
}

// Prompt sends a turn and waits for its response. Turns are unbounded in
// length, so no timeout is applied beyond ctx.
func (s *Session) Prompt(
	ctx context.Context,
	sessionID string,
	blocks []message.ContentBlock,
) (*PromptResult, error) {
	resp, err := s.controller.SendRequest(ctx, MethodPrompt, map[string]any{
		"sessionId": sessionID,
		"prompt":    blocks,
	}, 0)
	if err != nil {
		return nil, err
	}

	var result PromptResult
	if len(resp) > 0 && string(resp) != "null" {
		if err := json.Unmarshal(resp, &result); err != nil {
			return nil, fmt.Errorf("decode %s result: %w", MethodPrompt, err)
		}
	}

	return &result, nil
}

// Cancel asks the agent to stop the session's current turn.
func (s *Session) Cancel(ctx context.Context, sessionID string) error {
	return s.controller.Notify(ctx, MethodCancel, map[string]any{"sessionId": sessionID})
}

// HandleRequestPermission answers a session/request_permission call using
// the configured permission callback.
func (s *Session) HandleRequestPermission(ctx context.Context, params json.RawMessage) (any, error) {
	req, err := permission.ParseRequest(params)
	if err != nil {
		return nil, err
	}

	s.log.Debug("Permission requested",
		"tool_call_id", req.ToolCall.ID,
		"title", req.ToolCall.Title,
		"options", len(req.Options),
	)

	result, err := s.options.Permission()(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("permission callback: %w", err)
	}

	if result == nil {
		result = &permission.ResultCancelled{}
	}

	s.log.Debug("Permission decided", "tool_call_id", req.ToolCall.ID, "outcome", result.GetOutcome())

	return permission.Response(result), nil
}
