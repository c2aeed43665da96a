package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	agent "github.com/armatrix/cursor-agent-sdk-go"
	"github.com/armatrix/cursor-agent-sdk-go/backend/sim"
	"github.com/armatrix/cursor-agent-sdk-go/internal/config"
	"github.com/armatrix/cursor-agent-sdk-go/ledger"
)

// exitError carries a non-zero exit code whose message was already printed.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func exitCode(code int) error {
	if code == 0 {
		return nil
	}
	return &exitError{code: code}
}

// app holds the process boundary so commands can run against buffers in tests.
type app struct {
	stdin           io.Reader
	stdout          io.Writer
	stderr          io.Writer
	env             config.EnvLookup
	stdinIsTerminal func() bool
	getwd           func() (string, error)
	simOptions      []sim.Option

	// persistent flags
	apiKey     string
	configPath string
	maxBudget  string
	verbose    bool
}

// newLogger creates a structured logger on stderr with the configured
// verbosity. LOG_FORMAT=json selects the JSON handler.
func (a *app) newLogger() *slog.Logger {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if v, _ := a.env("LOG_FORMAT"); strings.EqualFold(v, "json") {
		return slog.New(slog.NewJSONHandler(a.stderr, opts))
	}
	return slog.New(slog.NewTextHandler(a.stderr, opts))
}

// workDir returns the directory settings and batch patterns resolve against.
func (a *app) workDir() (string, error) {
	getwd := a.getwd
	if getwd == nil {
		getwd = os.Getwd
	}
	cwd, err := getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	return cwd, nil
}

// loadSettings merges user, project and --config settings.
func (a *app) loadSettings(cwd string) (*config.Settings, error) {
	paths := config.DefaultSettingsPaths(cwd)
	if a.configPath != "" {
		if _, err := os.Stat(a.configPath); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		paths = append(paths, a.configPath)
	}
	return config.LoadSettings(paths...)
}

// newAgent builds an agent from settings and persistent flags.
func (a *app) newAgent(cwd string, settings *config.Settings, extra ...agent.AgentOption) (*agent.Agent, error) {
	lat := settings.Latency
	simOpts := []sim.Option{sim.WithLatency(sim.Latency{
		Request: config.Duration(lat.RequestMs, sim.DefaultLatency.Request),
		Chunk:   config.Duration(lat.ChunkMs, sim.DefaultLatency.Chunk),
		Tool:    config.Duration(lat.ToolMs, sim.DefaultLatency.Tool),
		File:    config.Duration(lat.FileMs, sim.DefaultLatency.File),
	})}
	if settings.Model != "" {
		simOpts = append(simOpts, sim.WithModel(settings.Model))
	}
	simOpts = append(simOpts, a.simOptions...)

	opts := []agent.AgentOption{
		agent.WithBackend(sim.New(simOpts...)),
		agent.WithLogger(a.newLogger()),
		agent.WithEnv(a.env),
		agent.WithCWD(cwd),
	}
	if a.apiKey != "" {
		opts = append(opts, agent.WithAPIKey(a.apiKey))
	}
	if a.maxBudget != "" {
		budget, err := decimal.NewFromString(a.maxBudget)
		if err != nil {
			return nil, fmt.Errorf("invalid --max-budget %q: %w", a.maxBudget, err)
		}
		opts = append(opts, agent.WithMaxBudget(budget))
	}
	return agent.NewAgent(append(opts, extra...)...), nil
}

// openLedger opens a batch ledger: SQLite for .db/.sqlite paths, a directory
// of JSON files otherwise. An empty path disables the ledger.
func openLedger(ctx context.Context, path string) (ledger.Store, func() error, error) {
	noop := func() error { return nil }
	if path == "" {
		return nil, noop, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, noop, fmt.Errorf("create ledger dir: %w", err)
		}
		store, err := ledger.OpenSQLite(ctx, path)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	default:
		store, err := ledger.NewFileStore(path)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	}
}
