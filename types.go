package acpclient

import (
	"github.com/wagiedev/acp-client-go/internal/client"
	"github.com/wagiedev/acp-client-go/internal/demux"
	"github.com/wagiedev/acp-client-go/internal/history"
	"github.com/wagiedev/acp-client-go/internal/permission"
	"github.com/wagiedev/acp-client-go/internal/prompt"
)

// ===== Session state =====

// State is the session lifecycle state.
type State = client.State

// Session lifecycle states.
const (
	StateUninitialized   = client.StateUninitialized
	StateInitializing    = client.StateInitializing
	StateInitialized     = client.StateInitialized
	StateSessionCreating = client.StateSessionCreating
	StateSessionReady    = client.StateSessionReady
	StatePrompting       = client.StatePrompting
	StateClosed          = client.StateClosed
)

// ===== Prompts =====

// PromptRequest describes one user turn: text plus optional file context.
type PromptRequest = prompt.Request

// File is a file sent with a prompt. Text, when set, is embedded.
type File = prompt.File

// Selection is text selected in an editor.
type Selection = prompt.Selection

// PDFSelection is text selected on a PDF page.
type PDFSelection = prompt.PDFSelection

// Text returns a prompt request carrying only text.
func Text(text string) *PromptRequest {
	return &PromptRequest{Text: text}
}

// ExpandReferences resolves glob patterns under root to a sorted, de-duplicated
// list of regular files.
func ExpandReferences(root string, patterns ...string) ([]string, error) {
	return prompt.ExpandReferences(root, patterns)
}

// ReadFiles loads files for embedding in a prompt.
func ReadFiles(paths ...string) ([]File, error) {
	return prompt.ReadFiles(paths)
}

// ===== Tool calls =====

// ToolCall is a tool invocation reported by the agent.
type ToolCall = demux.ToolCall

// ToolCallStatus is a tool call's lifecycle status.
type ToolCallStatus = demux.Status

// Tool call statuses.
const (
	ToolCallRunning   = demux.StatusRunning
	ToolCallCompleted = demux.StatusCompleted
	ToolCallFailed    = demux.StatusFailed
	ToolCallCancelled = demux.StatusCancelled
)

// DelegateToolName is the name given to tool calls that hand off to a sub-agent.
const DelegateToolName = demux.DelegateToolName

// ===== Permissions =====

// PermissionRequest is the agent's request to run a tool.
type PermissionRequest = permission.Request

// PermissionOption is one choice offered by a permission request.
type PermissionOption = permission.Option

// PermissionResult is the answer to a permission request.
type PermissionResult = permission.Result

// PermissionSelected picks one of the offered options.
type PermissionSelected = permission.ResultSelected

// PermissionCancelled declines to choose.
type PermissionCancelled = permission.ResultCancelled

// PermissionCallback decides permission requests.
type PermissionCallback = permission.Callback

// AllowPolicy approves every request once when the agent offers that choice.
var AllowPolicy PermissionCallback = permission.AllowPolicy

// RejectPolicy rejects every request once when the agent offers that choice.
var RejectPolicy PermissionCallback = permission.RejectPolicy

// ===== History =====

// HistoryStore receives conversation records.
type HistoryStore = history.Store

// HistoryRecord is one stored message.
type HistoryRecord = history.Record

// HistoryRole is the author of a HistoryRecord.
type HistoryRole = history.Role

// History roles.
const (
	RoleUser      = history.RoleUser
	RoleAssistant = history.RoleAssistant
)

// NewMemoryHistory returns an in-memory HistoryStore.
func NewMemoryHistory() *history.MemoryStore {
	return history.NewMemoryStore()
}
