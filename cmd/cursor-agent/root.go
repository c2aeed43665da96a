package main

import (
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/spf13/cobra"

	agent "github.com/armatrix/cursor-agent-sdk-go"
)

type rootFlags struct {
	print               bool
	force               bool
	outputFormat        string
	streamPartialOutput bool
	outputFile          string
}

func newRootCmd(a *app) *cobra.Command {
	var f rootFlags

	cmd := &cobra.Command{
		Use:   "cursor-agent [prompt]",
		Short: "Run a prompt through the agent",
		Long: `cursor-agent sends a prompt to the agent and prints the answer.

The prompt is taken from the arguments, or from stdin when it is piped.
Non-interactive execution (-p) and an API key (--api-key or CURSOR_API_KEY)
are required. With --output-format stream-json and --stream-partial-output
every event is written to stdout as one JSON record per line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPrompt(cmd, args, f)
		},
	}
	cmd.SetIn(a.stdin)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.apiKey, "api-key", "", "API key (default: $CURSOR_API_KEY)")
	pf.StringVar(&a.configPath, "config", "", "Additional settings file (JSON or YAML)")
	pf.StringVar(&a.maxBudget, "max-budget", "", "Stop issuing calls once this many USD were spent")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging on stderr")

	fl := cmd.Flags()
	fl.BoolVarP(&f.print, "print", "p", false, "Non-interactive execution")
	fl.BoolVarP(&f.force, "force", "f", false, "Allow the agent to apply changes without confirmation")
	fl.StringVar(&f.outputFormat, "output-format", string(agent.FormatText), "Output format: text, json or stream-json")
	fl.BoolVar(&f.streamPartialOutput, "stream-partial-output", false, "Stream events as they are produced (stream-json only)")
	fl.StringVarP(&f.outputFile, "output-file", "o", "", "Report file written by a streaming analysis (default: analysis.txt)")

	cmd.AddCommand(newBatchCmd(a), newSchemaCmd(a))
	return cmd
}

// readPrompt joins the arguments, or reads piped stdin when there are none.
// An interactive terminal is never read.
func (a *app) readPrompt(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if a.stdin == nil || (a.stdinIsTerminal != nil && a.stdinIsTerminal()) {
		return "", nil
	}
	data, err := io.ReadAll(a.stdin)
	if err != nil {
		return "", fmt.Errorf("read prompt from stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (a *app) runPrompt(cmd *cobra.Command, args []string, f rootFlags) error {
	prompt, err := a.readPrompt(args)
	if err != nil {
		return err
	}
	cwd, err := a.workDir()
	if err != nil {
		return err
	}
	settings, err := a.loadSettings(cwd)
	if err != nil {
		return err
	}
	ag, err := a.newAgent(cwd, settings)
	if err != nil {
		return err
	}

	req := agent.Request{
		Prompt:              prompt,
		Print:               f.print,
		Force:               f.force,
		OutputFormat:        agent.OutputFormat(f.outputFormat),
		StreamPartialOutput: f.streamPartialOutput,
	}
	ctx := cmd.Context()

	if req.Streaming() {
		outputFile := f.outputFile
		if outputFile == "" {
			outputFile = settings.OutputFile
		}
		return exitCode(a.writeEvents(ag.Run(ctx, req, outputFile)))
	}

	code, err := agent.WriteResult(a.stdout, a.stderr, ag.Invoke(ctx, req))
	if err != nil {
		return err
	}
	return exitCode(code)
}

// writeEvents writes protocol events to stdout and error events to stderr.
// It returns 1 if any error event or failed batch item was written.
func (a *app) writeEvents(seq iter.Seq[agent.Event]) int {
	out := agent.NewLineWriter(a.stdout)
	diag := agent.NewLineWriter(a.stderr)
	code := 0
	for e := range seq {
		w := out
		switch {
		case e.Type() == agent.EventError:
			w = diag
			code = 1
		case e.Type() == agent.EventFileProcessed && e.Meta().Subtype == agent.SubtypeError:
			code = 1
		}
		if err := w.WriteEvent(e); err != nil {
			fmt.Fprintln(a.stderr, "error:", err)
			return 1
		}
	}
	return code
}
