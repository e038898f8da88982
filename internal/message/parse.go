package message

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/wagiedev/acp-client-go/internal/errors"
)

// Parse converts session/update params into a typed Notification.
//
// The logger is used to log debug information about update parsing.
// Unknown update kinds return errors.ErrUnknownUpdateKind, which callers
// should skip. Malformed payloads return *errors.UpdateParseError.
func Parse(log *slog.Logger, params json.RawMessage) (*Notification, error) {
	log = log.With("component", "update_parser")

	var envelope struct {
		SessionID string         `json:"sessionId"`
		Update    map[string]any `json:"update"`
	}

	if err := json.Unmarshal(params, &envelope); err != nil {
		return nil, &errors.UpdateParseError{Kind: "session/update", Err: err}
	}

	if envelope.Update == nil {
		return nil, &errors.UpdateParseError{
			Kind: "session/update",
			Err:  fmt.Errorf("missing 'update' field"),
		}
	}

	kind, ok := envelope.Update["sessionUpdate"].(string)
	if !ok {
		return nil, &errors.UpdateParseError{
			Kind: "session/update",
			Err:  fmt.Errorf("missing or invalid 'sessionUpdate' field"),
		}
	}

	log.Debug("Parsing session update", "kind", kind)

	var (
		update Update
		err    error
	)

	data := envelope.Update

	switch kind {
	case KindAgentMessageChunk:
		var content ContentBlock

		content, err = parseContent(data)
		update = &AgentMessageChunk{Content: content}
	case KindAgentThoughtChunk:
		var content ContentBlock

		content, err = parseContent(data)
		update = &AgentThoughtChunk{Content: content}
	case KindUserMessageChunk:
		var content ContentBlock

		content, err = parseContent(data)
		update = &UserMessageChunk{Content: content}
	case KindToolCall:
		update, err = parseToolCall(data)
	case KindToolCallUpdate:
		update, err = parseToolCallUpdate(data)
	case KindPlan:
		update = parsePlan(data)
	case KindAvailableCommandsUpdate:
		update = parseCommands(data)
	case KindCurrentModeUpdate:
		update = &CurrentModeUpdate{CurrentModeID: stringField(data, "currentModeId", "current_mode_id")}
	case KindTurnComplete, KindAgentTurnComplete, KindPromptComplete:
		update = &TurnComplete{Kind: kind}
	default:
		log.Debug("Skipping unknown session update", "kind", kind)

		return nil, fmt.Errorf("%w: %s", errors.ErrUnknownUpdateKind, kind)
	}

	if err != nil {
		return nil, &errors.UpdateParseError{Kind: kind, Err: err}
	}

	return &Notification{SessionID: envelope.SessionID, Update: update}, nil
}

func parseContent(data map[string]any) (ContentBlock, error) {
	raw, ok := data["content"]
	if !ok {
		return nil, fmt.Errorf("missing 'content' field")
	}

	contentJSON, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal content: %w", err)
	}

	block, err := UnmarshalContentBlock(contentJSON)
	if err != nil {
		return nil, fmt.Errorf("content: %w", err)
	}

	return block, nil
}

func parseToolCall(data map[string]any) (*ToolCall, error) {
	id := stringField(data, "toolCallId", "tool_call_id")
	if id == "" {
		return nil, fmt.Errorf("missing 'toolCallId' field")
	}

	return &ToolCall{
		ToolCallID: id,
		Title:      stringField(data, "title", "title"),
		Kind:       stringField(data, "kind", "kind"),
		Status:     stringField(data, "status", "status"),
		RawInput:   objectField(data, "rawInput", "raw_input"),
		Meta:       objectField(data, "_meta", "_meta"),
	}, nil
}

func parseToolCallUpdate(data map[string]any) (*ToolCallUpdate, error) {
	id := stringField(data, "toolCallId", "tool_call_id")
	if id == "" {
		return nil, fmt.Errorf("missing 'toolCallId' field")
	}

	return &ToolCallUpdate{
		ToolCallID: id,
		Title:      stringField(data, "title", "title"),
		Kind:       stringField(data, "kind", "kind"),
		Status:     stringField(data, "status", "status"),
		RawInput:   objectField(data, "rawInput", "raw_input"),
		Meta:       objectField(data, "_meta", "_meta"),
	}, nil
}

func parsePlan(data map[string]any) *Plan {
	plan := &Plan{}

	entries, _ := data["entries"].([]any)
	for _, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}

		plan.Entries = append(plan.Entries, PlanEntry{
			Content:  stringField(entry, "content", "content"),
			Priority: stringField(entry, "priority", "priority"),
			Status:   stringField(entry, "status", "status"),
		})
	}

	return plan
}

func parseCommands(data map[string]any) *AvailableCommandsUpdate {
	update := &AvailableCommandsUpdate{}

	raw, _ := data["availableCommands"].([]any)
	if raw == nil {
		raw, _ = data["available_commands"].([]any)
	}

	for _, c := range raw {
		cmd, ok := c.(map[string]any)
		if !ok {
			continue
		}

		update.Commands = append(update.Commands, Command{
			Name:        stringField(cmd, "name", "name"),
			Description: stringField(cmd, "description", "description"),
		})
	}

	return update
}

// stringField reads a string under the camelCase key, then the snake_case key.
func stringField(data map[string]any, camel, snake string) string {
	if s, ok := data[camel].(string); ok {
		return s
	}

	s, _ := data[snake].(string)

	return s
}

// objectField reads an object under the camelCase key, then the snake_case key.
func objectField(data map[string]any, camel, snake string) map[string]any {
	if m, ok := data[camel].(map[string]any); ok {
		return m
	}

	m, _ := data[snake].(map[string]any)

	return m
}
