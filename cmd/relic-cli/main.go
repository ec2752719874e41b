package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/XiaoConstantine/relicbench/cmd/relic-cli/internal/commands"
	"github.com/XiaoConstantine/relicbench/pkg/logging"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "relic-cli",
	Short: "Run and score literary-evidence retrieval benchmarks",
	Long: `relic-cli drives masked-quotation retrieval benchmarks end to end:

- run inference against a model provider with bounded concurrency,
  retries, and an append-only resumable log
- extract tagged spans from raw responses into an aligned CSV
- score aligned responses for source validity, ground-truth
  correctness, and line-number distance
- summarize token and cost spend from a run log
- draw category-balanced samples from a dataset`,
	Version: "0.1.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		severity := logging.INFO
		if verbose {
			severity = logging.DEBUG
		}
		logging.SetLogger(logging.NewLogger(logging.Config{
			Severity: severity,
			Outputs:  []logging.Output{logging.NewConsoleOutput(true)},
		}))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(
		commands.NewRunCommand(),
		commands.NewExtractCommand(),
		commands.NewEvalCommand(),
		commands.NewStatsCommand(),
		commands.NewSampleCommand(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
