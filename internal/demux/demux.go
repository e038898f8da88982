// Package demux classifies session updates for the active turn and tracks
// tool calls, suppressing the output of delegated sub-agents.
package demux

import (
	"log/slog"
	"slices"
	"time"

	"github.com/wagiedev/acp-client-go/internal/message"
)

// DelegateToolName is the name reported for the synthetic call that stands
// in for a delegation.
const DelegateToolName = "delegate"

// Status is the lifecycle state of a tool call.
type Status string

const (
	// StatusRunning covers the agent's pending and in_progress states.
	StatusRunning Status = "running"
	// StatusCompleted means the tool finished successfully.
	StatusCompleted Status = "completed"
	// StatusFailed means the tool finished with an error.
	StatusFailed Status = "failed"
	// StatusCancelled means the tool was stopped before finishing.
	StatusCancelled Status = "cancelled"
)

// ParseStatus maps an ACP tool call status onto Status.
func ParseStatus(s string) (Status, bool) {
	switch s {
	case "pending", "in_progress", "running":
		return StatusRunning, true
	case "completed":
		return StatusCompleted, true
	case "failed":
		return StatusFailed, true
	case "cancelled", "canceled":
		return StatusCancelled, true
	default:
		return "", false
	}
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// ToolCall is the tracked state of one tool invocation.
type ToolCall struct {
	ID        string
	Name      string
	Query     string
	Status    Status
	ToolType  string
	StartTime time.Time
	// EndTime is zero until the call reaches a terminal status.
	EndTime time.Time
}

// EventKind distinguishes tool call events.
type EventKind int

const (
	// EventStarted is emitted when a visible tool call is first seen.
	EventStarted EventKind = iota + 1
	// EventUpdated is emitted when a visible tool call changes.
	EventUpdated
)

// ToolEvent reports a change to a visible tool call.
type ToolEvent struct {
	Kind EventKind
	Call ToolCall
}

// Result is what one update means for the turn.
type Result struct {
	// Text is visible response text, empty when the update carries none.
	Text string
	// Tool is set when a visible tool call started or changed.
	Tool *ToolEvent
	// DelegationStarted is set when a delegation tool call began.
	DelegationStarted bool
	// DelegationEnded is set when the active delegation reached a terminal status.
	DelegationEnded bool
	// TurnComplete is set when the agent signalled the end of the turn.
	TurnComplete bool
	// ModeID is set when the agent switched modes on its own.
	ModeID string
}

// queryKeys are the rawInput keys that describe what a tool is operating
// on, in priority order.
var queryKeys = []string{"command", "file_path", "pattern", "url", "description"}

// Tracker demultiplexes session updates. It is owned by the read loop and is
// not safe for concurrent use; Calls returns copies for other goroutines.
type Tracker struct {
	log             *slog.Logger
	delegationTools []string
	now             func() time.Time

	calls      map[string]*ToolCall
	order      []string
	delegation string
}

// NewTracker creates a tracker that treats the named tools as delegations.
func NewTracker(log *slog.Logger, delegationTools []string) *Tracker {
	return &Tracker{
		log:             log.With("component", "demux"),
		delegationTools: slices.Clone(delegationTools),
		now:             time.Now,
		calls:           make(map[string]*ToolCall, 8),
	}
}

// Reset forgets all tool calls and any active delegation.
func (t *Tracker) Reset() {
	clear(t.calls)
	t.order = t.order[:0]
	t.delegation = ""
}

// Delegating reports whether a sub-agent currently owns the turn.
func (t *Tracker) Delegating() bool {
	return t.delegation != ""
}

// Calls returns the tracked tool calls in the order they started.
func (t *Tracker) Calls() []ToolCall {
	out := make([]ToolCall, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.calls[id])
	}

	return out
}

// Dispatch classifies one update.
func (t *Tracker) Dispatch(update message.Update) Result {
	switch u := update.(type) {
	case *message.AgentMessageChunk:
		if t.Delegating() {
			return Result{}
		}

		return Result{Text: u.Text()}

	case *message.ToolCall:
		return t.startCall(u)

	case *message.ToolCallUpdate:
		return t.updateCall(u)

	case *message.TurnComplete:
		return Result{TurnComplete: true}

	case *message.CurrentModeUpdate:
		return Result{ModeID: u.CurrentModeID}

	default:
		return Result{}
	}
}

func (t *Tracker) startCall(u *message.ToolCall) Result {
	if t.Delegating() {
		t.log.Debug("Suppressing sub-agent tool call", "tool_call_id", u.ToolCallID, "delegation", t.delegation)

		return Result{}
	}

	if _, known := t.calls[u.ToolCallID]; known {
		// A repeated announcement is treated as an update.
		return t.updateCall(&message.ToolCallUpdate{
			ToolCallID: u.ToolCallID,
			Status:     u.Status,
			RawInput:   u.RawInput,
		})
	}

	status, ok := ParseStatus(u.Status)
	if !ok {
		status = StatusRunning
	}

	call := &ToolCall{
		ID:        u.ToolCallID,
		Name:      u.ToolName(),
		Query:     refineQuery(u.RawInput),
		Status:    status,
		ToolType:  u.Kind,
		StartTime: t.now(),
	}

	res := Result{}

	if slices.Contains(t.delegationTools, call.Name) {
		t.log.Debug("Delegation started", "tool_call_id", call.ID, "tool", call.Name)

		call.Name = DelegateToolName
		call.Query = subagentType(u.RawInput)
		t.delegation = call.ID
		res.DelegationStarted = true
	}

	if status.Terminal() {
		call.EndTime = call.StartTime

		if t.delegation == call.ID {
			t.delegation = ""
			res.DelegationEnded = true
		}
	}

	t.calls[call.ID] = call
	t.order = append(t.order, call.ID)
	res.Tool = &ToolEvent{Kind: EventStarted, Call: *call}

	return res
}

func (t *Tracker) updateCall(u *message.ToolCallUpdate) Result {
	call, ok := t.calls[u.ToolCallID]
	if !ok {
		t.log.Debug("Ignoring update for unknown tool call", "tool_call_id", u.ToolCallID)

		return Result{}
	}

	changed := false

	if call.Name == DelegateToolName {
		if q := subagentType(u.RawInput); q != "" && q != call.Query {
			call.Query = q
			changed = true
		}
	} else if q := refineQuery(u.RawInput); q != "" && q != call.Query {
		call.Query = q
		changed = true
	}

	res := Result{}

	if status, ok := ParseStatus(u.Status); ok && status != call.Status && !call.Status.Terminal() {
		call.Status = status
		changed = true

		if status.Terminal() {
			call.EndTime = t.now()

			if t.delegation == call.ID {
				t.log.Debug("Delegation ended", "tool_call_id", call.ID, "status", status)

				t.delegation = ""
				res.DelegationEnded = true
			}
		}
	}

	if changed {
		res.Tool = &ToolEvent{Kind: EventUpdated, Call: *call}
	}

	return res
}

// refineQuery picks the most descriptive rawInput value.
func refineQuery(input map[string]any) string {
	for _, key := range queryKeys {
		if s, ok := input[key].(string); ok && s != "" {
			return s
		}
	}

	return ""
}

func subagentType(input map[string]any) string {
	for _, key := range []string{"subagent_type", "subagentType"} {
		if s, ok := input[key].(string); ok && s != "" {
			return s
		}
	}

	return ""
}
