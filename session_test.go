package agent

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armatrix/cursor-agent-sdk-go/backend"
	"github.com/armatrix/cursor-agent-sdk-go/internal/config"
)

func toolEvents(events []Event) []*ToolCallEvent {
	var out []*ToolCallEvent
	for _, e := range events {
		if tc, ok := e.(*ToolCallEvent); ok {
			out = append(out, tc)
		}
	}
	return out
}

func assistantEvents(events []Event) []*AssistantEvent {
	var out []*AssistantEvent
	for _, e := range events {
		if ae, ok := e.(*AssistantEvent); ok {
			out = append(out, ae)
		}
	}
	return out
}

func TestStream_Order(t *testing.T) {
	a := newTestAgent(t, newFakeBackend(), WithCWD("/work"))
	events := Collect(a.Stream(context.Background(), "analyze", "report.md"))
	require.NotEmpty(t, events)

	sys, ok := events[0].(*SystemEvent)
	require.True(t, ok, "first event is system/init")
	assert.Equal(t, SubtypeInit, sys.Subtype)
	assert.Equal(t, "cursor-large-v1", sys.Model)
	assert.Equal(t, "/work", sys.CWD)

	res, ok := events[len(events)-1].(*ResultEvent)
	require.True(t, ok, "last event is the result")
	assert.Equal(t, SubtypeSuccess, res.Subtype)
	assert.Equal(t, int64(1250), res.DurationMs)
	assert.Equal(t, "0.0125", res.TotalCostUSD.String())

	// system, assistant..., read started/completed, write started/completed, result
	kinds := make([]EventType, len(events))
	for i, e := range events {
		kinds[i] = e.Type()
	}
	tail := kinds[len(kinds)-5:]
	assert.Equal(t, []EventType{EventToolCall, EventToolCall, EventToolCall, EventToolCall, EventResult}, tail)
	for _, k := range kinds[1 : len(kinds)-5] {
		assert.Equal(t, EventAssistant, k)
	}
}

func TestStream_SharedEventID(t *testing.T) {
	a := newTestAgent(t, newFakeBackend())
	events := Collect(a.Stream(context.Background(), "analyze", ""))

	id := events[0].Meta().EventID
	assert.Regexp(t, `^evt_\d{8}T\d{6}_[0-9a-f]{16}$`, id)
	for _, e := range events {
		assert.Equal(t, id, e.Meta().EventID)
	}
}

func TestStream_ReplayStartsNewSession(t *testing.T) {
	a := newTestAgent(t, newFakeBackend())
	seq := a.Stream(context.Background(), "analyze", "")

	first := Collect(seq)
	second := Collect(seq)
	require.Len(t, second, len(first))
	assert.NotEqual(t, first[0].Meta().EventID, second[0].Meta().EventID)
}

func TestStream_CumulativeAssistantText(t *testing.T) {
	a := newTestAgent(t, newFakeBackend())
	msgs := assistantEvents(Collect(a.Stream(context.Background(), "analyze", "")))
	require.NotEmpty(t, msgs)

	prev := ""
	for _, m := range msgs {
		text := m.Text()
		assert.Equal(t, "assistant", m.Message.Role)
		assert.True(t, strings.HasPrefix(text, prev), "each chunk extends the previous text")
		assert.Greater(t, utf8.RuneCountInString(text), utf8.RuneCountInString(prev))
		prev = text
	}
	assert.Contains(t, prev, "Analyzing project structure")
}

func TestStream_ToolPairs(t *testing.T) {
	a := newTestAgent(t, newFakeBackend())
	calls := toolEvents(Collect(a.Stream(context.Background(), "analyze", "report.md")))
	require.Len(t, calls, 4)

	started := map[string]bool{}
	completed := map[string]bool{}
	for _, c := range calls {
		assert.Equal(t, c.CallID, c.ToolCall.ID)
		assert.Regexp(t, `^tool_[0-9a-f-]{36}$`, c.CallID)
		switch c.Subtype {
		case SubtypeStarted:
			started[c.CallID] = true
			assert.Nil(t, c.ToolCall.Result)
		case SubtypeCompleted:
			completed[c.CallID] = true
			assert.NotNil(t, c.ToolCall.Result)
		default:
			t.Fatalf("unexpected subtype %q", c.Subtype)
		}
	}
	assert.Equal(t, started, completed)
	assert.Len(t, started, 2, "read and write calls have distinct ids")

	assert.Equal(t, ToolRead, calls[0].ToolCall.Name)
	assert.Equal(t, DefaultReadPath, calls[0].ToolCall.Args["path"])
	assert.Equal(t, ToolWrite, calls[2].ToolCall.Name)
	assert.Equal(t, "report.md", calls[2].ToolCall.Args["path"])
}

func TestStream_DefaultOutputFile(t *testing.T) {
	a := newTestAgent(t, newFakeBackend())
	calls := toolEvents(Collect(a.Stream(context.Background(), "analyze", "")))
	require.Len(t, calls, 4)
	assert.Equal(t, DefaultOutputFile, calls[2].ToolCall.Args["path"])
}

func TestStream_TimestampsOrdered(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	a := newTestAgent(t, newFakeBackend(), WithClock(fixedClock(start, time.Millisecond)))
	events := Collect(a.Stream(context.Background(), "analyze", ""))

	for i := 1; i < len(events); i++ {
		assert.LessOrEqual(t, events[i-1].Meta().Timestamp, events[i].Meta().Timestamp)
	}
	assert.True(t, strings.HasPrefix(events[0].Meta().Timestamp, "2026-03-01T10:00:00."))
}

func TestStream_EarlyBreak(t *testing.T) {
	a := newTestAgent(t, newFakeBackend())

	var got []Event
	for e := range a.Stream(context.Background(), "analyze", "") {
		got = append(got, e)
		if len(got) == 3 {
			break
		}
	}
	assert.Len(t, got, 3)
}

func TestStream_DraftFailure(t *testing.T) {
	fb := newFakeBackend()
	fb.draftErrAt = 3
	a := newTestAgent(t, fb)

	events := Collect(a.Stream(context.Background(), "analyze", ""))
	require.Len(t, events, 5, "init, three assistant chunks, error")

	last, ok := events[4].(*ErrorEvent)
	require.True(t, ok)
	assert.Contains(t, last.Message, "backend draft: boom")
	assert.NotEqual(t, events[0].Meta().EventID, last.EventID, "error events carry a fresh id")
	assert.Empty(t, toolEvents(events))
}

func TestStream_ToolFailure(t *testing.T) {
	fb := newFakeBackend()
	fb.toolErr = map[string]error{ToolWrite: errBoom}
	a := newTestAgent(t, fb)

	events := Collect(a.Stream(context.Background(), "analyze", ""))
	calls := toolEvents(events)
	require.Len(t, calls, 4)
	assert.Equal(t, SubtypeCompleted, calls[1].Subtype)
	assert.Equal(t, SubtypeStarted, calls[2].Subtype)
	assert.Equal(t, SubtypeFailed, calls[3].Subtype)
	assert.Equal(t, calls[2].CallID, calls[3].CallID)
	assert.Equal(t, "boom", calls[3].ToolCall.Error)

	last, ok := events[len(events)-1].(*ErrorEvent)
	require.True(t, ok)
	assert.Equal(t, "backend write: boom", last.Message)
	for _, e := range events {
		assert.NotEqual(t, EventResult, e.Type())
	}
}

func TestStream_FinishFailure(t *testing.T) {
	fb := newFakeBackend()
	fb.finishErr = errBoom
	a := newTestAgent(t, fb)

	events := Collect(a.Stream(context.Background(), "analyze", ""))
	last, ok := events[len(events)-1].(*ErrorEvent)
	require.True(t, ok)
	assert.Equal(t, "backend finish: boom", last.Message)
	assert.Len(t, toolEvents(events), 4)
}

func TestStream_Cancelled(t *testing.T) {
	a := newTestAgent(t, newFakeBackend())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := Collect(a.Stream(ctx, "analyze", ""))
	require.Len(t, events, 2)
	assert.Equal(t, EventSystem, events[0].Type())
	last, ok := events[1].(*ErrorEvent)
	require.True(t, ok)
	assert.Contains(t, last.Message, context.Canceled.Error())
}

type zeroDurationBackend struct {
	*fakeBackend
}

func (z zeroDurationBackend) Finish(ctx context.Context, prompt string) (*backend.Summary, error) {
	sum, err := z.fakeBackend.Finish(ctx, prompt)
	if err != nil {
		return nil, err
	}
	sum.DurationMs = 0
	return sum, nil
}

func TestStream_DurationFallsBackToClock(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	a := NewAgent(
		WithBackend(zeroDurationBackend{newFakeBackend()}),
		WithClock(fixedClock(start, 10*time.Millisecond)),
	)
	events := Collect(a.Stream(context.Background(), "analyze", ""))
	res, ok := events[len(events)-1].(*ResultEvent)
	require.True(t, ok)
	assert.Positive(t, res.DurationMs)
}

func TestRun_Rejected(t *testing.T) {
	fb := newFakeBackend()
	a := newTestAgent(t, fb, WithEnv(config.MapEnv(nil)))

	events := Collect(a.Run(context.Background(), Request{
		Prompt:       "analyze",
		Print:        true,
		OutputFormat: FormatStreamJSON,
	}, ""))
	require.Len(t, events, 1)
	e, ok := events[0].(*ErrorEvent)
	require.True(t, ok)
	assert.Contains(t, e.Message, "missing credential")
}

func TestRun_ReportsKeySource(t *testing.T) {
	a := newTestAgent(t, newFakeBackend())
	ctx := context.Background()
	req := Request{Prompt: "analyze", Print: true, OutputFormat: FormatStreamJSON, StreamPartialOutput: true}

	events := Collect(a.Run(ctx, req, ""))
	sys, ok := events[0].(*SystemEvent)
	require.True(t, ok)
	assert.Equal(t, config.SourceEnv, sys.APIKeySource)

	req.APIKey = "explicit"
	events = Collect(a.Run(ctx, req, ""))
	sys, ok = events[0].(*SystemEvent)
	require.True(t, ok)
	assert.Equal(t, config.SourceExplicit, sys.APIKeySource)
	assert.Equal(t, EventResult, events[len(events)-1].Type())
}
