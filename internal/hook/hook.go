// Package hook provides observer callbacks for tool-call and turn lifecycle events.
package hook

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Event represents the type of event that triggers a hook.
type Event string

const (
	// EventToolCallStarted is triggered when the agent reports a new tool call.
	EventToolCallStarted Event = "ToolCallStarted"
	// EventToolCallUpdated is triggered when a visible tool call changes status.
	EventToolCallUpdated Event = "ToolCallUpdated"
	// EventDelegationStarted is triggered when the agent hands off to a sub-agent.
	EventDelegationStarted Event = "DelegationStarted"
	// EventDelegationEnded is triggered when the sub-agent's call reaches a terminal status.
	EventDelegationEnded Event = "DelegationEnded"
	// EventTurnCompleted is triggered when a prompt turn ends, successfully or not.
	EventTurnCompleted Event = "TurnCompleted"
)

// Input is the interface for all hook input types.
type Input interface {
	GetHookEventName() Event
	GetSessionID() string
}

// Compile-time verification that all hook input types implement Input.
var (
	_ Input = (*ToolCallStartedInput)(nil)
	_ Input = (*ToolCallUpdatedInput)(nil)
	_ Input = (*DelegationStartedInput)(nil)
	_ Input = (*DelegationEndedInput)(nil)
	_ Input = (*TurnCompletedInput)(nil)
)

// BaseInput contains common fields for all hook inputs.
type BaseInput struct {
	SessionID string `json:"sessionId"`
}

// GetSessionID implements Input.
func (b *BaseInput) GetSessionID() string { return b.SessionID }

// ToolCallStartedInput is the input for ToolCallStarted hooks.
type ToolCallStartedInput struct {
	BaseInput
	ToolCallID string `json:"toolCallId"`
	ToolName   string `json:"toolName"`
	ToolType   string `json:"toolType,omitempty"`
	Query      string `json:"query,omitempty"`
}

// GetHookEventName implements Input.
func (t *ToolCallStartedInput) GetHookEventName() Event { return EventToolCallStarted }

// ToolCallUpdatedInput is the input for ToolCallUpdated hooks.
type ToolCallUpdatedInput struct {
	BaseInput
	ToolCallID string `json:"toolCallId"`
	ToolName   string `json:"toolName"`
	Status     string `json:"status"`
	Query      string `json:"query,omitempty"`
}

// GetHookEventName implements Input.
func (t *ToolCallUpdatedInput) GetHookEventName() Event { return EventToolCallUpdated }

// DelegationStartedInput is the input for DelegationStarted hooks.
type DelegationStartedInput struct {
	BaseInput
	ToolCallID   string `json:"toolCallId"`
	SubagentType string `json:"subagentType,omitempty"`
}

// GetHookEventName implements Input.
func (d *DelegationStartedInput) GetHookEventName() Event { return EventDelegationStarted }

// DelegationEndedInput is the input for DelegationEnded hooks.
type DelegationEndedInput struct {
	BaseInput
	ToolCallID string `json:"toolCallId"`
	Status     string `json:"status"`
}

// GetHookEventName implements Input.
func (d *DelegationEndedInput) GetHookEventName() Event { return EventDelegationEnded }

// TurnCompletedInput is the input for TurnCompleted hooks.
type TurnCompletedInput struct {
	BaseInput
	TurnID     string        `json:"turnId"`
	StopReason string        `json:"stopReason,omitempty"`
	Duration   time.Duration `json:"duration"`
	Err        error         `json:"-"`
}

// GetHookEventName implements Input.
func (t *TurnCompletedInput) GetHookEventName() Event { return EventTurnCompleted }

// Callback is the function signature for hook callbacks.
// Callbacks run on the protocol read loop and must not block.
type Callback func(ctx context.Context, input Input)

// Matcher configures which tools a hook applies to.
type Matcher struct {
	// Matcher is a tool name like "Bash" or a pipe-separated combination like "Write|Edit".
	// When nil, the hook matches all tools. Events without a tool name
	// (turn completion) ignore the matcher.
	// This is NOT regex - pipe (|) separates multiple tool names to match.
	Matcher *string
	Hooks   []Callback
}

// Matches reports whether the matcher applies to toolName.
func (m *Matcher) Matches(toolName string) bool {
	if m.Matcher == nil || toolName == "" {
		return true
	}

	for name := range strings.SplitSeq(*m.Matcher, "|") {
		if strings.TrimSpace(name) == toolName {
			return true
		}
	}

	return false
}

// Registry dispatches events to configured callbacks.
type Registry struct {
	log   *slog.Logger
	hooks map[Event][]*Matcher
}

// NewRegistry creates a registry over hooks. A nil map yields a registry that
// fires nothing.
func NewRegistry(log *slog.Logger, hooks map[Event][]*Matcher) *Registry {
	return &Registry{
		log:   log.With("component", "hooks"),
		hooks: hooks,
	}
}

// Fire invokes every callback whose matcher applies to input.
func (r *Registry) Fire(ctx context.Context, input Input) {
	if r == nil || len(r.hooks) == 0 {
		return
	}

	event := input.GetHookEventName()
	toolName := toolNameOf(input)

	for _, m := range r.hooks[event] {
		if m == nil || !m.Matches(toolName) {
			continue
		}

		for _, cb := range m.Hooks {
			r.log.Debug("Firing hook", "event", event, "tool_name", toolName)
			cb(ctx, input)
		}
	}
}

func toolNameOf(input Input) string {
	switch in := input.(type) {
	case *ToolCallStartedInput:
		return in.ToolName
	case *ToolCallUpdatedInput:
		return in.ToolName
	default:
		return ""
	}
}
