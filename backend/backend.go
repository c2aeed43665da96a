// Package backend defines the contract between the agent orchestration layer
// and the opaque agent capability it drives.
//
// The orchestration layer never talks to a transport directly. It forwards
// prompts and tool calls to a [Backend] and turns whatever comes back into
// protocol events and results. The simulated implementation lives in
// [github.com/armatrix/cursor-agent-sdk-go/backend/sim].
package backend

import (
	"context"
	"iter"

	"github.com/shopspring/decimal"
)

// Backend is the agent capability driven by the orchestration layer.
//
// Every method may block for backend latency and must return promptly with
// ctx.Err() once ctx is done.
type Backend interface {
	// Model returns the identity announced in the system init event.
	Model() string

	// Complete runs a one-shot prompt and returns the full answer.
	Complete(ctx context.Context, q Query) (*Completion, error)

	// Draft streams the assistant text for a prompt as successive chunks.
	// Iteration stops at the first non-nil error.
	Draft(ctx context.Context, prompt string) iter.Seq2[string, error]

	// CallTool executes one tool invocation and returns its result payload.
	CallTool(ctx context.Context, call ToolCall) (map[string]any, error)

	// Finish closes out a streamed prompt and reports run totals.
	Finish(ctx context.Context, prompt string) (*Summary, error)

	// ProcessFile runs a per-file batch prompt.
	ProcessFile(ctx context.Context, path, prompt string) (*FileResult, error)
}

// Query is a single prompt forwarded to Complete.
type Query struct {
	Prompt string
	Format string
	APIKey string
	// Force allows the backend to apply file changes without confirmation.
	Force bool
}

// Completion is the answer to a Query.
type Completion struct {
	Text            string
	Result          string
	Recommendations []string
	FileChanges     []FileChange
	Cost            decimal.Decimal
}

// FileChange describes one file touched by the backend.
type FileChange struct {
	Path       string `json:"path"`
	Action     string `json:"action"`
	LinesAdded int    `json:"lines_added"`
}

// ToolCall is one tool invocation requested during a streamed run.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// Summary holds the totals reported at the end of a streamed run.
type Summary struct {
	DurationMs int64
	Cost       decimal.Decimal
}

// FileResult is the outcome of processing one batch file.
type FileResult struct {
	Recommendations []string `json:"recommendations"`
	LinesAdded      int      `json:"lines_added"`
}
