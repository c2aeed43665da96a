// Package sim provides a simulated agent backend that answers every call
// with fixed payloads after a configurable delay. It performs no network
// access and never touches the filesystem.
package sim

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/armatrix/cursor-agent-sdk-go/backend"
)

// DefaultModel is the model identity reported by the simulated backend.
const DefaultModel = "cursor-large-v1"

// Tool names understood by CallTool.
const (
	ToolRead  = "read"
	ToolWrite = "write"
)

// Latency holds the simulated delay for each kind of backend step.
type Latency struct {
	Request time.Duration // one-shot Complete
	Chunk   time.Duration // each Draft chunk
	Tool    time.Duration // each CallTool
	File    time.Duration // each ProcessFile
}

// DefaultLatency mirrors the timings of the hosted agent CLI closely enough
// for demos.
var DefaultLatency = Latency{
	Request: 500 * time.Millisecond,
	Chunk:   10 * time.Millisecond,
	Tool:    200 * time.Millisecond,
	File:    500 * time.Millisecond,
}

const (
	answerText   = "This codebase is a frontend application built with React and TypeScript, with user authentication and data visualization features."
	reviewResult = "Code review complete, no critical issues found."
	draftText    = "Analyzing project structure... Generating report summary... File scan complete..."
)

var (
	reviewRecommendations = []string{
		"Add JSDoc comments to improve readability",
		"Consider refactoring legacy code with ES6+ syntax",
		"Increase unit test coverage",
	}
	fileRecommendations = []string{
		"Add JSDoc comments",
		"Refine function structure",
	}
	streamCost = decimal.RequireFromString("0.0125")
	queryCost  = decimal.RequireFromString("0.0040")
)

// Backend is the simulated backend.
type Backend struct {
	model   string
	latency Latency
	delay   backend.Delayer
}

var _ backend.Backend = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithModel overrides the reported model identity.
func WithModel(model string) Option {
	return func(b *Backend) { b.model = model }
}

// WithLatency overrides the simulated latencies.
func WithLatency(l Latency) Option {
	return func(b *Backend) { b.latency = l }
}

// WithDelayer replaces the wait implementation. Tests pass backend.NoDelay.
func WithDelayer(d backend.Delayer) Option {
	return func(b *Backend) { b.delay = d }
}

// New creates a simulated backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		model:   DefaultModel,
		latency: DefaultLatency,
		delay:   backend.Sleep,
	}
	for _, fn := range opts {
		fn(b)
	}
	return b
}

func (b *Backend) Model() string { return b.model }

func (b *Backend) Complete(ctx context.Context, q backend.Query) (*backend.Completion, error) {
	if err := b.delay.Delay(ctx, b.latency.Request); err != nil {
		return nil, err
	}
	return &backend.Completion{
		Text:            answerText,
		Result:          reviewResult,
		Recommendations: append([]string(nil), reviewRecommendations...),
		FileChanges: []backend.FileChange{
			{Path: "src/utils.js", Action: "updated", LinesAdded: 12},
		},
		Cost: queryCost,
	}, nil
}

// Draft yields the fixed analysis text one rune at a time.
func (b *Backend) Draft(ctx context.Context, _ string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, r := range draftText {
			if err := b.delay.Delay(ctx, b.latency.Chunk); err != nil {
				yield("", err)
				return
			}
			if !yield(string(r), nil) {
				return
			}
		}
	}
}

func (b *Backend) CallTool(ctx context.Context, call backend.ToolCall) (map[string]any, error) {
	if err := b.delay.Delay(ctx, b.latency.Tool); err != nil {
		return nil, err
	}
	switch call.Name {
	case ToolRead:
		return map[string]any{"success": map[string]any{"totalLines": 450}}, nil
	case ToolWrite:
		return map[string]any{"success": map[string]any{"linesCreated": 23, "fileSize": 1024}}, nil
	default:
		return nil, fmt.Errorf("unknown tool %q", call.Name)
	}
}

func (b *Backend) Finish(ctx context.Context, _ string) (*backend.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &backend.Summary{DurationMs: 1250, Cost: streamCost}, nil
}

func (b *Backend) ProcessFile(ctx context.Context, _, _ string) (*backend.FileResult, error) {
	if err := b.delay.Delay(ctx, b.latency.File); err != nil {
		return nil, err
	}
	return &backend.FileResult{
		Recommendations: append([]string(nil), fileRecommendations...),
		LinesAdded:      8,
	}, nil
}
