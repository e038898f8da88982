package acpclient

import "github.com/wagiedev/acp-client-go/internal/hook"

// HookEvent names a lifecycle event.
type HookEvent = hook.Event

// Hook events.
const (
	HookEventToolCallStarted   = hook.EventToolCallStarted
	HookEventToolCallUpdated   = hook.EventToolCallUpdated
	HookEventDelegationStarted = hook.EventDelegationStarted
	HookEventDelegationEnded   = hook.EventDelegationEnded
	HookEventTurnCompleted     = hook.EventTurnCompleted
)

// HookInput is the payload passed to a hook callback.
type HookInput = hook.Input

// HookCallback observes a lifecycle event. It must not block.
type HookCallback = hook.Callback

// HookMatcher selects the tools a set of callbacks applies to.
type HookMatcher = hook.Matcher

// Hook input payloads.
type (
	ToolCallStartedHookInput   = hook.ToolCallStartedInput
	ToolCallUpdatedHookInput   = hook.ToolCallUpdatedInput
	DelegationStartedHookInput = hook.DelegationStartedInput
	DelegationEndedHookInput   = hook.DelegationEndedInput
	TurnCompletedHookInput     = hook.TurnCompletedInput
)
