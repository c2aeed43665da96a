// Package hook defines public types for the agent hook system.
//
// Hooks let users register callbacks that fire around tool calls inside a
// streaming session, at session boundaries, and around each file of a
// streaming batch. The [Matcher] type binds a set of [Func] callbacks to a
// specific [Event] and an optional regex on the tool name or file path.
package hook

import (
	"context"
	"time"
)

// Event identifies when a hook fires.
type Event string

const (
	SessionStart        Event = "SessionStart"
	SessionEnd          Event = "SessionEnd"
	PreToolCall         Event = "PreToolCall"
	PostToolCall        Event = "PostToolCall"
	PostToolCallFailure Event = "PostToolCallFailure"
	PreFile             Event = "PreFile"
	PostFile            Event = "PostFile"
)

// Input is passed to hook functions.
type Input struct {
	EventID string
	Event   Event

	// Session hooks
	Model  string // SessionStart.
	Prompt string // SessionStart.

	// Tool hooks
	ToolName   string         // PreToolCall, PostToolCall, PostToolCallFailure.
	ToolArgs   map[string]any // PreToolCall, PostToolCall, PostToolCallFailure.
	ToolResult map[string]any // PostToolCall.
	ToolError  error          // PostToolCallFailure.

	// Batch hooks
	File     string // PreFile, PostFile.
	Progress string // PreFile, PostFile.
	FileErr  error  // PostFile, nil on success.
}

// Result is returned by hook functions. A zero value means "no action".
type Result struct {
	Block  bool   // PreToolCall and PreFile only: skip the call.
	Reason string // Human-readable reason for blocking.
}

// Func is the signature for hook callbacks.
type Func func(ctx context.Context, input *Input) (*Result, error)

// Matcher defines which events a set of hooks should fire for.
type Matcher struct {
	Event   Event         // Which event to match.
	Pattern string        // Regex on the tool name or file path (empty = match all).
	Hooks   []Func        // Functions to call (in order).
	Timeout time.Duration // Max time for all hooks in this matcher (0 = 30s default).
}
