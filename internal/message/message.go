package message

// Session update kinds carried in the "sessionUpdate" discriminator.
const (
	KindAgentMessageChunk       = "agent_message_chunk"
	KindAgentThoughtChunk       = "agent_thought_chunk"
	KindUserMessageChunk        = "user_message_chunk"
	KindToolCall                = "tool_call"
	KindToolCallUpdate          = "tool_call_update"
	KindPlan                    = "plan"
	KindAvailableCommandsUpdate = "available_commands_update"
	KindCurrentModeUpdate       = "current_mode_update"
	KindTurnComplete            = "turn_complete"
	KindAgentTurnComplete       = "agent_turn_complete"
	KindPromptComplete          = "prompt_complete"
)

// Update represents any session/update payload.
// Use type assertion or type switch to determine the concrete type.
type Update interface {
	UpdateKind() string
}

// Compile-time verification that all update types implement Update.
var (
	_ Update = (*AgentMessageChunk)(nil)
	_ Update = (*AgentThoughtChunk)(nil)
	_ Update = (*UserMessageChunk)(nil)
	_ Update = (*ToolCall)(nil)
	_ Update = (*ToolCallUpdate)(nil)
	_ Update = (*Plan)(nil)
	_ Update = (*AvailableCommandsUpdate)(nil)
	_ Update = (*CurrentModeUpdate)(nil)
	_ Update = (*TurnComplete)(nil)
)

// Notification is a decoded session/update notification.
type Notification struct {
	SessionID string
	Update    Update
}

// AgentMessageChunk is a piece of the agent's visible response.
type AgentMessageChunk struct {
	Content ContentBlock
}

// UpdateKind implements the Update interface.
func (u *AgentMessageChunk) UpdateKind() string { return KindAgentMessageChunk }

// Text returns the chunk's visible text.
func (u *AgentMessageChunk) Text() string { return TextOf(u.Content) }

// AgentThoughtChunk is a piece of the agent's reasoning.
type AgentThoughtChunk struct {
	Content ContentBlock
}

// UpdateKind implements the Update interface.
func (u *AgentThoughtChunk) UpdateKind() string { return KindAgentThoughtChunk }

// UserMessageChunk replays user content, typically when loading a session.
type UserMessageChunk struct {
	Content ContentBlock
}

// UpdateKind implements the Update interface.
func (u *UserMessageChunk) UpdateKind() string { return KindUserMessageChunk }

// ToolCall announces a new tool invocation.
type ToolCall struct {
	ToolCallID string
	Title      string
	Kind       string
	Status     string
	RawInput   map[string]any
	Meta       map[string]any
}

// UpdateKind implements the Update interface.
func (u *ToolCall) UpdateKind() string { return KindToolCall }

// ToolName returns the agent's internal tool name when it reports one in
// _meta.claudeCode.toolName, otherwise the title.
func (u *ToolCall) ToolName() string {
	if name := metaToolName(u.Meta); name != "" {
		return name
	}

	return u.Title
}

// ToolCallUpdate changes the status or input of a known tool call.
// Empty fields were absent on the wire.
type ToolCallUpdate struct {
	ToolCallID string
	Title      string
	Kind       string
	Status     string
	RawInput   map[string]any
	Meta       map[string]any
}

// UpdateKind implements the Update interface.
func (u *ToolCallUpdate) UpdateKind() string { return KindToolCallUpdate }

// ToolName returns the tool name carried in _meta, if any.
func (u *ToolCallUpdate) ToolName() string { return metaToolName(u.Meta) }

// PlanEntry is one step of an agent plan.
type PlanEntry struct {
	Content  string
	Priority string
	Status   string
}

// Plan is the agent's current execution plan.
type Plan struct {
	Entries []PlanEntry
}

// UpdateKind implements the Update interface.
func (u *Plan) UpdateKind() string { return KindPlan }

// Command is a slash command the agent accepts.
type Command struct {
	Name        string
	Description string
}

// AvailableCommandsUpdate lists the commands the agent currently accepts.
type AvailableCommandsUpdate struct {
	Commands []Command
}

// UpdateKind implements the Update interface.
func (u *AvailableCommandsUpdate) UpdateKind() string { return KindAvailableCommandsUpdate }

// CurrentModeUpdate reports that the agent switched modes on its own.
type CurrentModeUpdate struct {
	CurrentModeID string
}

// UpdateKind implements the Update interface.
func (u *CurrentModeUpdate) UpdateKind() string { return KindCurrentModeUpdate }

// TurnComplete marks the end of a prompt turn. Kind records which of the
// equivalent wire names was used.
type TurnComplete struct {
	Kind string
}

// UpdateKind implements the Update interface.
func (u *TurnComplete) UpdateKind() string { return u.Kind }

func metaToolName(meta map[string]any) string {
	cc, ok := meta["claudeCode"].(map[string]any)
	if !ok {
		return ""
	}

	name, _ := cc["toolName"].(string)

	return name
}
