// Package permission answers agent-initiated session/request_permission calls.
package permission

import (
	"context"
	"encoding/json"
	"fmt"
)

// OptionKind is the effect an agent attaches to a permission option.
type OptionKind string

const (
	// OptionAllowOnce allows this single operation.
	OptionAllowOnce OptionKind = "allow_once"
	// OptionAllowAlways allows this operation and remembers the choice.
	OptionAllowAlways OptionKind = "allow_always"
	// OptionRejectOnce rejects this single operation.
	OptionRejectOnce OptionKind = "reject_once"
	// OptionRejectAlways rejects this operation and remembers the choice.
	OptionRejectAlways OptionKind = "reject_always"
)

// Option is one choice offered by the agent.
type Option struct {
	ID   string     `json:"optionId"`
	Name string     `json:"name"`
	Kind OptionKind `json:"kind"`
}

// ToolCall identifies the operation awaiting permission.
type ToolCall struct {
	ID       string          `json:"toolCallId"`
	Title    string          `json:"title,omitempty"`
	Kind     string          `json:"kind,omitempty"`
	RawInput json.RawMessage `json:"rawInput,omitempty"`
}

// Request is the params of a session/request_permission call.
type Request struct {
	SessionID string   `json:"sessionId"`
	ToolCall  ToolCall `json:"toolCall"`
	Options   []Option `json:"options"`
}

// ParseRequest decodes session/request_permission params.
func ParseRequest(params json.RawMessage) (*Request, error) {
	var req Request
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("decode permission request: %w", err)
	}

	return &req, nil
}

// Find returns the first option of the given kind.
func (r *Request) Find(kind OptionKind) (Option, bool) {
	for _, opt := range r.Options {
		if opt.Kind == kind {
			return opt, true
		}
	}

	return Option{}, false
}

// Result is the interface for permission decision results.
type Result interface {
	GetOutcome() string
}

// Compile-time verification that permission result types implement Result.
var (
	_ Result = (*ResultSelected)(nil)
	_ Result = (*ResultCancelled)(nil)
)

// ResultSelected picks one of the offered options.
type ResultSelected struct {
	OptionID string
}

// GetOutcome implements Result.
func (p *ResultSelected) GetOutcome() string { return "selected" }

// ResultCancelled declines to choose; the agent treats the operation as cancelled.
type ResultCancelled struct{}

// GetOutcome implements Result.
func (p *ResultCancelled) GetOutcome() string { return "cancelled" }

// Callback decides a permission request.
type Callback func(ctx context.Context, req *Request) (Result, error)

// AllowPolicy selects an allow_once option, then allow_always, else cancels.
func AllowPolicy(_ context.Context, req *Request) (Result, error) {
	for _, kind := range []OptionKind{OptionAllowOnce, OptionAllowAlways} {
		if opt, ok := req.Find(kind); ok {
			return &ResultSelected{OptionID: opt.ID}, nil
		}
	}

	return &ResultCancelled{}, nil
}

// RejectPolicy selects a reject_once option, then reject_always, else cancels.
func RejectPolicy(_ context.Context, req *Request) (Result, error) {
	for _, kind := range []OptionKind{OptionRejectOnce, OptionRejectAlways} {
		if opt, ok := req.Find(kind); ok {
			return &ResultSelected{OptionID: opt.ID}, nil
		}
	}

	return &ResultCancelled{}, nil
}

// Response builds the session/request_permission reply for result.
func Response(result Result) map[string]any {
	outcome := map[string]any{"outcome": "cancelled"}

	if sel, ok := result.(*ResultSelected); ok && sel.OptionID != "" {
		outcome = map[string]any{
			"outcome":  "selected",
			"optionId": sel.OptionID,
		}
	}

	return map[string]any{"outcome": outcome}
}
