package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/XiaoConstantine/relicbench/pkg/runlog"
)

func NewStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <log.jsonl>",
		Short: "Summarize token usage and cost from a run log",
		Long: `Aggregate token counts and provider-reported costs from a JSONL run
log, globally and per model. Every record counts, including superseded
re-attempts: this is spend accounting, not the logical resume view.`,
		Example: `  relic-cli stats logs/raw.jsonl`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := runlog.ReadAll(args[0])
			if err != nil {
				return err
			}
			stats := runlog.ComputeStats(records)

			pretty, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(pretty))
			return nil
		},
	}
}
