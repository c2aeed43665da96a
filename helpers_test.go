package agent

import (
	"context"
	"errors"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/armatrix/cursor-agent-sdk-go/backend"
	"github.com/armatrix/cursor-agent-sdk-go/backend/sim"
	"github.com/armatrix/cursor-agent-sdk-go/internal/config"
)

var errBoom = errors.New("boom")

// fakeBackend wraps the simulated backend with zero latency and injectable
// failures.
type fakeBackend struct {
	*sim.Backend

	completeErr error
	promptErr   map[string]error
	draftErrAt  int // fail before this chunk index; 0 disables
	toolErr     map[string]error
	finishErr   error
	fileErr     map[string]error

	mu      sync.Mutex
	queries []backend.Query
	files   []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{Backend: sim.New(sim.WithDelayer(backend.NoDelay))}
}

func (f *fakeBackend) Complete(ctx context.Context, q backend.Query) (*backend.Completion, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	if err := f.promptErr[q.Prompt]; err != nil {
		return nil, err
	}
	return f.Backend.Complete(ctx, q)
}

func (f *fakeBackend) Draft(ctx context.Context, prompt string) iter.Seq2[string, error] {
	if f.draftErrAt == 0 {
		return f.Backend.Draft(ctx, prompt)
	}
	return func(yield func(string, error) bool) {
		n := 0
		for chunk, err := range f.Backend.Draft(ctx, prompt) {
			if n == f.draftErrAt {
				yield("", errBoom)
				return
			}
			if !yield(chunk, err) {
				return
			}
			n++
		}
	}
}

func (f *fakeBackend) CallTool(ctx context.Context, call backend.ToolCall) (map[string]any, error) {
	if err := f.toolErr[call.Name]; err != nil {
		return nil, err
	}
	return f.Backend.CallTool(ctx, call)
}

func (f *fakeBackend) Finish(ctx context.Context, prompt string) (*backend.Summary, error) {
	if f.finishErr != nil {
		return nil, f.finishErr
	}
	return f.Backend.Finish(ctx, prompt)
}

func (f *fakeBackend) ProcessFile(ctx context.Context, path, prompt string) (*backend.FileResult, error) {
	f.mu.Lock()
	f.files = append(f.files, path)
	f.mu.Unlock()
	if err := f.fileErr[path]; err != nil {
		return nil, err
	}
	return f.Backend.ProcessFile(ctx, path, prompt)
}

// newTestAgent returns an agent on fb with CURSOR_API_KEY set in a private
// environment.
func newTestAgent(t *testing.T, fb *fakeBackend, opts ...AgentOption) *Agent {
	t.Helper()
	base := []AgentOption{
		WithBackend(fb),
		WithEnv(config.MapEnv(map[string]string{EnvAPIKey: "env-key"})),
	}
	return NewAgent(append(base, opts...)...)
}

// fixedClock returns a clock that advances by step on every call.
func fixedClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := cur
		cur = cur.Add(step)
		return t
	}
}
