package agent

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/armatrix/cursor-agent-sdk-go/backend"
	"github.com/armatrix/cursor-agent-sdk-go/internal/budget"
	"github.com/armatrix/cursor-agent-sdk-go/internal/config"
	"github.com/armatrix/cursor-agent-sdk-go/internal/hookrunner"
)

// Agent validates requests, forwards them to the backend and turns the
// answers into results and protocol events.
// The same Agent can be safely shared across multiple goroutines and Clients.
type Agent struct {
	backend backend.Backend
	ids     *EventFactory
	log     *slog.Logger
	budget  *budget.Tracker
	hooks   *hookrunner.Runner
	opts    agentOptions
}

// NewAgent creates a new Agent with the given options.
// Hook matchers with an invalid pattern are logged and ignored.
func NewAgent(opts ...AgentOption) *Agent {
	resolved := resolveOptions(opts)
	a := &Agent{
		backend: resolved.backend,
		ids:     NewEventFactory(resolved.now),
		log:     resolved.logger,
		budget:  budget.NewTracker(resolved.maxBudget),
		opts:    resolved,
	}

	// Wire hooks
	if len(resolved.hookMatchers) > 0 {
		runner, err := hookrunner.New(resolved.hookMatchers)
		if err != nil {
			a.log.Warn("hooks disabled", "error", err)
		} else {
			a.hooks = runner
		}
	}
	return a
}

// Model returns the model identity of the backend.
func (a *Agent) Model() string {
	return a.backend.Model()
}

// Events returns the factory used for identifiers and timestamps.
func (a *Agent) Events() *EventFactory {
	return a.ids
}

// TotalCost returns the cost reported by the backend across all calls so far.
func (a *Agent) TotalCost() decimal.Decimal {
	return a.budget.TotalCost()
}

func (a *Agent) checkBudget() error {
	if !a.budget.Exhausted() {
		return nil
	}
	return &PreconditionError{Err: ErrBudgetExhausted, Hint: "spent $" + a.budget.TotalCost().String()}
}

// credential is the key resolved for one call.
type credential struct {
	key    string
	source string
}

// validate runs the precondition checks in order and resolves the credential
// once for the call.
func (a *Agent) validate(req Request) (credential, error) {
	if req.Prompt == "" {
		return credential{}, &PreconditionError{Err: ErrMissingPrompt}
	}
	if !req.Print {
		return credential{}, &PreconditionError{Err: ErrNotPrintMode, Hint: "enable print mode (-p)"}
	}
	explicit := req.APIKey
	if explicit == "" {
		explicit = a.opts.apiKey
	}
	key, source := config.ResolveAPIKey(explicit, a.opts.env, EnvAPIKey)
	if key == "" {
		return credential{}, &PreconditionError{Err: ErrMissingCredential, Hint: "set " + EnvAPIKey + " or pass an API key"}
	}
	if _, err := ParseOutputFormat(string(req.OutputFormat)); err != nil {
		return credential{}, &PreconditionError{Err: ErrInvalidOutputFormat, Hint: string(req.OutputFormat)}
	}
	return credential{key: key, source: source}, nil
}

// Invoke runs a single non-streaming call.
//
// A stream-json request returns an empty text placeholder rather than an
// error: streaming output is only produced by Stream and Run.
func (a *Agent) Invoke(ctx context.Context, req Request) *Result {
	format := req.OutputFormat
	if format == "" {
		format = FormatText
	}

	cred, err := a.validate(req)
	if err != nil {
		a.log.Warn("request rejected", "error", err, "format", format)
		return errorResult(format, err)
	}

	if format == FormatStreamJSON {
		a.log.Debug("stream-json requested on single-call entry point")
		return &Result{Format: format}
	}

	if err := a.checkBudget(); err != nil {
		a.log.Warn("request rejected", "error", err)
		return errorResult(format, err)
	}

	comp, err := a.backend.Complete(ctx, backend.Query{
		Prompt: req.Prompt,
		Format: string(format),
		APIKey: cred.key,
		Force:  req.Force,
	})
	if err != nil {
		berr := &BackendError{Op: "complete", Cause: err}
		a.log.Error("backend call failed", "error", berr)
		return errorResult(format, berr)
	}
	a.budget.Record(comp.Cost)

	if format == FormatJSON {
		return &Result{
			Format: format,
			Response: &Response{
				Result:          comp.Result,
				Recommendations: comp.Recommendations,
				FileChanges:     comp.FileChanges,
				Success:         true,
				Prompt:          req.Prompt,
				PrintMode:       req.Print,
				Force:           req.Force,
				OutputFormat:    format,
				APIKeySet:       true,
				TotalCostUSD:    comp.Cost,
				ExitCode:        0,
			},
		}
	}
	return &Result{Format: format, Text: comp.Text}
}
