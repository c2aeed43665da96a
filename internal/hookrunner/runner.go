// Package hookrunner provides the internal runner that executes hook matchers.
package hookrunner

import (
	"context"
	"fmt"
	"regexp"
	"time"

	pubhook "github.com/armatrix/cursor-agent-sdk-go/hook"
)

const defaultTimeout = 30 * time.Second

// Runner executes hooks matched by event and subject (tool name or file path).
// A nil *Runner runs nothing.
type Runner struct {
	matchers []matcherEntry
}

type matcherEntry struct {
	event   pubhook.Event
	pattern *regexp.Regexp // nil = match all
	hooks   []pubhook.Func
	timeout time.Duration
}

// New creates a Runner from public Matcher definitions.
// Returns an error if any regex pattern is invalid.
func New(matchers []pubhook.Matcher) (*Runner, error) {
	entries := make([]matcherEntry, 0, len(matchers))
	for i, m := range matchers {
		entry := matcherEntry{
			event:   m.Event,
			hooks:   m.Hooks,
			timeout: m.Timeout,
		}
		if entry.timeout == 0 {
			entry.timeout = defaultTimeout
		}
		if m.Pattern != "" {
			re, err := regexp.Compile(m.Pattern)
			if err != nil {
				return nil, fmt.Errorf("matcher[%d]: invalid pattern %q: %w", i, m.Pattern, err)
			}
			entry.pattern = re
		}
		entries = append(entries, entry)
	}
	return &Runner{matchers: entries}, nil
}

// RunSessionStart runs all SessionStart hooks.
func (r *Runner) RunSessionStart(ctx context.Context, eventID, model, prompt string) error {
	_, err := r.run(ctx, "", &pubhook.Input{
		EventID: eventID,
		Event:   pubhook.SessionStart,
		Model:   model,
		Prompt:  prompt,
	})
	return err
}

// RunSessionEnd runs all SessionEnd hooks.
func (r *Runner) RunSessionEnd(ctx context.Context, eventID string) error {
	_, err := r.run(ctx, "", &pubhook.Input{
		EventID: eventID,
		Event:   pubhook.SessionEnd,
	})
	return err
}

// RunPreToolCall runs all matching PreToolCall hooks. First block wins.
func (r *Runner) RunPreToolCall(ctx context.Context, eventID, toolName string, args map[string]any) (*pubhook.Result, error) {
	return r.run(ctx, toolName, &pubhook.Input{
		EventID:  eventID,
		Event:    pubhook.PreToolCall,
		ToolName: toolName,
		ToolArgs: args,
	})
}

// RunPostToolCall runs all matching PostToolCall hooks.
func (r *Runner) RunPostToolCall(ctx context.Context, eventID, toolName string, args, result map[string]any) error {
	_, err := r.run(ctx, toolName, &pubhook.Input{
		EventID:    eventID,
		Event:      pubhook.PostToolCall,
		ToolName:   toolName,
		ToolArgs:   args,
		ToolResult: result,
	})
	return err
}

// RunPostToolFailure runs all matching PostToolCallFailure hooks.
func (r *Runner) RunPostToolFailure(ctx context.Context, eventID, toolName string, args map[string]any, toolErr error) error {
	_, err := r.run(ctx, toolName, &pubhook.Input{
		EventID:   eventID,
		Event:     pubhook.PostToolCallFailure,
		ToolName:  toolName,
		ToolArgs:  args,
		ToolError: toolErr,
	})
	return err
}

// RunPreFile runs all PreFile hooks whose pattern matches file. First block wins.
func (r *Runner) RunPreFile(ctx context.Context, eventID, file, progress string) (*pubhook.Result, error) {
	return r.run(ctx, file, &pubhook.Input{
		EventID:  eventID,
		Event:    pubhook.PreFile,
		File:     file,
		Progress: progress,
	})
}

// RunPostFile runs all PostFile hooks whose pattern matches file.
func (r *Runner) RunPostFile(ctx context.Context, eventID, file, progress string, fileErr error) error {
	_, err := r.run(ctx, file, &pubhook.Input{
		EventID:  eventID,
		Event:    pubhook.PostFile,
		File:     file,
		Progress: progress,
		FileErr:  fileErr,
	})
	return err
}

// run is the internal dispatcher.
func (r *Runner) run(ctx context.Context, subject string, input *pubhook.Input) (*pubhook.Result, error) {
	if r == nil {
		return nil, nil
	}
	var combined *pubhook.Result

	for _, entry := range r.matchers {
		if entry.event != input.Event {
			continue
		}
		if entry.pattern != nil && !entry.pattern.MatchString(subject) {
			continue
		}

		tctx, cancel := context.WithTimeout(ctx, entry.timeout)
		res, err := runHooks(tctx, entry.hooks, input)
		cancel()

		if err != nil {
			return combined, err
		}
		if res == nil {
			continue
		}

		if combined == nil {
			combined = &pubhook.Result{}
		}
		if res.Block && !combined.Block {
			combined.Block = true
			combined.Reason = res.Reason
		}
		if combined.Block {
			break
		}
	}

	return combined, nil
}

// runHooks executes a slice of hook functions in order.
// It stops early if a hook blocks or the context is cancelled.
func runHooks(ctx context.Context, hooks []pubhook.Func, input *pubhook.Input) (*pubhook.Result, error) {
	var combined *pubhook.Result

	for _, fn := range hooks {
		if err := ctx.Err(); err != nil {
			return combined, err
		}

		res, err := fn(ctx, input)
		if err != nil {
			return combined, err
		}
		if res == nil {
			continue
		}

		if combined == nil {
			combined = &pubhook.Result{}
		}
		if res.Block {
			combined.Block = true
			combined.Reason = res.Reason
			return combined, nil
		}
	}

	return combined, nil
}
