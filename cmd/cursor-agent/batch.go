package main

import (
	"github.com/spf13/cobra"

	agent "github.com/armatrix/cursor-agent-sdk-go"
)

func newBatchCmd(a *app) *cobra.Command {
	var (
		stream     bool
		ledgerPath string
	)

	cmd := &cobra.Command{
		Use:   "batch <pattern> <template>",
		Short: "Run a prompt template against every file matching a glob",
		Long: `batch expands pattern ("**" matches any number of directories) and runs
template once per file, with {file} replaced by the file path.

Without --stream the results are printed as one JSON array. With --stream a
file_processing and a file_processed event are written per file.`,
		Example: `  cursor-agent batch 'src/**/*.js' 'Add JSDoc comments to {file}'
  cursor-agent batch --stream --ledger .cursor-agent/ledger.db '**/*.go' '{file}: review'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cwd, err := a.workDir()
			if err != nil {
				return err
			}
			settings, err := a.loadSettings(cwd)
			if err != nil {
				return err
			}
			if ledgerPath == "" {
				ledgerPath = settings.LedgerPath
			}

			store, closeStore, err := openLedger(ctx, ledgerPath)
			if err != nil {
				return err
			}
			defer closeStore()

			var extra []agent.AgentOption
			if store != nil {
				extra = append(extra, agent.WithItemRecorder(store))
			}
			ag, err := a.newAgent(cwd, settings, extra...)
			if err != nil {
				return err
			}

			pattern, template := args[0], args[1]
			if stream {
				return exitCode(a.writeEvents(ag.RunStreaming(ctx, pattern, template)))
			}
			code, err := agent.WriteResults(a.stdout, a.stderr, ag.RunCollected(ctx, pattern, template))
			if err != nil {
				return err
			}
			return exitCode(code)
		},
	}

	cmd.Flags().BoolVar(&stream, "stream", false, "Stream per-file progress events")
	cmd.Flags().StringVar(&ledgerPath, "ledger", "", "Record item status to a ledger (.db for SQLite, otherwise a directory)")
	return cmd
}
