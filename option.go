package agent

import (
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/armatrix/cursor-agent-sdk-go/backend"
	"github.com/armatrix/cursor-agent-sdk-go/backend/sim"
	"github.com/armatrix/cursor-agent-sdk-go/hook"
	"github.com/armatrix/cursor-agent-sdk-go/internal/config"
)

// AgentOption configures an Agent via the functional options pattern.
type AgentOption func(*agentOptions)

// agentOptions holds all configurable fields set via AgentOption functions.
type agentOptions struct {
	backend  backend.Backend
	logger   *slog.Logger
	now      func() time.Time
	env      config.EnvLookup
	apiKey   string
	cwd      string
	recorder ItemRecorder

	maxBudget    decimal.Decimal
	hookMatchers []hook.Matcher
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (o *agentOptions) applyDefaults() {
	if o.backend == nil {
		o.backend = sim.New()
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.env == nil {
		o.env = config.OSEnv
	}
}

// resolveOptions applies all option functions and fills defaults.
func resolveOptions(opts []AgentOption) agentOptions {
	var o agentOptions
	for _, fn := range opts {
		fn(&o)
	}
	o.applyDefaults()
	return o
}

// WithBackend sets the backend driven by the agent. Defaults to the simulated backend.
func WithBackend(b backend.Backend) AgentOption {
	return func(o *agentOptions) { o.backend = b }
}

// WithLogger sets the structured logger. Defaults to discarding output.
func WithLogger(l *slog.Logger) AgentOption {
	return func(o *agentOptions) { o.logger = l }
}

// WithClock sets the time source for event ids, timestamps and durations.
func WithClock(now func() time.Time) AgentOption {
	return func(o *agentOptions) { o.now = now }
}

// WithEnv sets the environment lookup used for credential fallback.
// Defaults to the process environment.
func WithEnv(env config.EnvLookup) AgentOption {
	return func(o *agentOptions) { o.env = env }
}

// WithAPIKey sets a default explicit key. A key on the Request still wins.
func WithAPIKey(key string) AgentOption {
	return func(o *agentOptions) { o.apiKey = key }
}

// WithCWD sets the working directory announced in system init events.
func WithCWD(dir string) AgentOption {
	return func(o *agentOptions) { o.cwd = dir }
}

// WithItemRecorder receives every batch item status transition.
func WithItemRecorder(r ItemRecorder) AgentOption {
	return func(o *agentOptions) { o.recorder = r }
}

// WithMaxBudget caps the cumulative backend cost in USD. Once reached, further
// calls are rejected with ErrBudgetExhausted. Zero means unlimited.
func WithMaxBudget(maxUSD decimal.Decimal) AgentOption {
	return func(o *agentOptions) { o.maxBudget = maxUSD }
}

// WithHooks appends hook matchers to the agent configuration.
func WithHooks(matchers ...hook.Matcher) AgentOption {
	return func(o *agentOptions) { o.hookMatchers = append(o.hookMatchers, matchers...) }
}
