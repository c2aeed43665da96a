package agent

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/armatrix/cursor-agent-sdk-go/backend"
)

// Stream runs one streaming analysis of prompt, writing its report to
// outputFile. The returned sequence is lazy: the backend is driven only as
// events are pulled, and each range over it starts a new session with a new
// event id.
//
// Emission order: system/init, cumulative assistant events, the read tool
// pair, the write tool pair, then a single result. On backend failure a
// started tool call is closed with tool_call/failed, an error event follows
// and the sequence ends. A PreToolCall hook that blocks a call is reported
// the same way. Breaking out of the range needs no further cleanup.
func (a *Agent) Stream(ctx context.Context, prompt, outputFile string) iter.Seq[Event] {
	return a.stream(ctx, prompt, outputFile, "")
}

// Run validates req like Invoke and then streams it. A rejected request
// yields a single error event.
func (a *Agent) Run(ctx context.Context, req Request, outputFile string) iter.Seq[Event] {
	cred, err := a.validate(req)
	if err != nil {
		a.log.Warn("request rejected", "error", err, "format", req.OutputFormat)
		return func(yield func(Event) bool) {
			yield(a.errorEvent(err))
		}
	}
	return a.stream(ctx, req.Prompt, outputFile, cred.source)
}

func (a *Agent) stream(ctx context.Context, prompt, outputFile, keySource string) iter.Seq[Event] {
	if outputFile == "" {
		outputFile = DefaultOutputFile
	}
	return func(yield func(Event) bool) {
		s := &streamSession{
			agent:     a,
			eventID:   a.ids.NewEventID(),
			started:   a.opts.now(),
			keySource: keySource,
			yield:     yield,
		}
		s.log = a.log.With("event_id", s.eventID)
		s.run(ctx, prompt, outputFile)
	}
}

// streamSession holds the state of one pass over a Stream sequence.
type streamSession struct {
	agent     *Agent
	eventID   string
	started   time.Time
	keySource string
	yield     func(Event) bool
	log       *slog.Logger
}

func (s *streamSession) meta(kind EventType, subtype string) EventMeta {
	return EventMeta{
		Kind:      kind,
		Subtype:   subtype,
		EventID:   s.eventID,
		Timestamp: s.agent.ids.Timestamp(),
	}
}

func (s *streamSession) run(ctx context.Context, prompt, outputFile string) {
	b := s.agent.backend
	if err := s.agent.checkBudget(); err != nil {
		s.fail(err)
		return
	}
	s.log.Debug("stream started", "model", b.Model())

	if !s.yield(&SystemEvent{
		EventMeta:    s.meta(EventSystem, SubtypeInit),
		Model:        b.Model(),
		CWD:          s.agent.opts.cwd,
		APIKeySource: s.keySource,
	}) {
		return
	}
	defer s.end(ctx)

	if err := s.agent.hooks.RunSessionStart(ctx, s.eventID, b.Model(), prompt); err != nil {
		s.fail(fmt.Errorf("session start hook: %w", err))
		return
	}

	var text strings.Builder
	for chunk, err := range b.Draft(ctx, prompt) {
		if err != nil {
			s.fail(&BackendError{Op: "draft", Cause: err})
			return
		}
		text.WriteString(chunk)
		if !s.yield(&AssistantEvent{
			EventMeta: s.meta(EventAssistant, ""),
			Message: AssistantMessage{
				Role:    "assistant",
				Content: []ContentBlock{{Type: "text", Text: text.String()}},
			},
		}) {
			return
		}
	}

	if !s.tool(ctx, ToolRead, map[string]any{"path": DefaultReadPath}) {
		return
	}
	if !s.tool(ctx, ToolWrite, map[string]any{"path": outputFile}) {
		return
	}

	sum, err := b.Finish(ctx, prompt)
	if err != nil {
		s.fail(&BackendError{Op: "finish", Cause: err})
		return
	}
	s.agent.budget.Record(sum.Cost)
	duration := sum.DurationMs
	if duration == 0 {
		duration = s.agent.opts.now().Sub(s.started).Milliseconds()
	}
	s.log.Debug("stream finished", "duration_ms", duration)
	s.yield(&ResultEvent{
		EventMeta:    s.meta(EventResult, SubtypeSuccess),
		DurationMs:   duration,
		TotalCostUSD: sum.Cost,
	})
}

// tool runs one started → completed pair. It returns false when the
// sequence must end, either because the consumer stopped or the call failed.
func (s *streamSession) tool(ctx context.Context, name string, args map[string]any) bool {
	id := s.agent.ids.NewToolCallID()
	if !s.yield(&ToolCallEvent{
		EventMeta: s.meta(EventToolCall, SubtypeStarted),
		CallID:    id,
		ToolCall:  ToolCallPayload{Name: name, ID: id, Args: args},
	}) {
		return false
	}

	hooks := s.agent.hooks
	verdict, err := hooks.RunPreToolCall(ctx, s.eventID, name, args)
	switch {
	case err != nil:
		return s.toolFailed(id, name, args, err.Error(), fmt.Errorf("pre-tool hook for %s: %w", name, err))
	case verdict != nil && verdict.Block:
		return s.toolFailed(id, name, args, verdict.Reason, fmt.Errorf("%s: %w: %s", name, ErrBlocked, verdict.Reason))
	}

	result, err := s.agent.backend.CallTool(ctx, backend.ToolCall{ID: id, Name: name, Args: args})
	if err != nil {
		if herr := hooks.RunPostToolFailure(context.WithoutCancel(ctx), s.eventID, name, args, err); herr != nil {
			s.log.Warn("post-tool failure hook failed", "tool", name, "error", herr)
		}
		return s.toolFailed(id, name, args, err.Error(), &BackendError{Op: name, Cause: err})
	}
	if herr := hooks.RunPostToolCall(ctx, s.eventID, name, args, result); herr != nil {
		s.log.Warn("post-tool hook failed", "tool", name, "error", herr)
	}

	return s.yield(&ToolCallEvent{
		EventMeta: s.meta(EventToolCall, SubtypeCompleted),
		CallID:    id,
		ToolCall:  ToolCallPayload{Name: name, ID: id, Args: args, Result: result},
	})
}

// toolFailed closes a started call with tool_call/failed and ends the
// session with an error event. It always returns false.
func (s *streamSession) toolFailed(id, name string, args map[string]any, reason string, err error) bool {
	if s.yield(&ToolCallEvent{
		EventMeta: s.meta(EventToolCall, SubtypeFailed),
		CallID:    id,
		ToolCall:  ToolCallPayload{Name: name, ID: id, Args: args, Error: reason},
	}) {
		s.fail(err)
	}
	return false
}

func (s *streamSession) end(ctx context.Context) {
	if err := s.agent.hooks.RunSessionEnd(context.WithoutCancel(ctx), s.eventID); err != nil {
		s.log.Warn("session end hook failed", "error", err)
	}
}

func (s *streamSession) fail(err error) {
	s.log.Error("stream failed", "error", err)
	s.yield(s.agent.errorEvent(err))
}

// errorEvent builds an error event under a fresh event id.
func (a *Agent) errorEvent(err error) *ErrorEvent {
	return &ErrorEvent{
		EventMeta: EventMeta{
			Kind:      EventError,
			EventID:   a.ids.NewEventID(),
			Timestamp: a.ids.Timestamp(),
		},
		Message: err.Error(),
	}
}
