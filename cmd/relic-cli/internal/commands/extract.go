package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/XiaoConstantine/relicbench/pkg/align"
	"github.com/XiaoConstantine/relicbench/pkg/dataset"
	"github.com/XiaoConstantine/relicbench/pkg/runlog"
)

func NewExtractCommand() *cobra.Command {
	var (
		inputPath  string
		logPath    string
		outputPath string
		model      string
		windowCol  string
		lineCol    string
		textCol    string
		rawCol     string
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Align a raw run log onto a CSV, extracting tagged response spans",
		Long: `Join log records to input rows on (uuid, book_title) and pull tagged
spans out of each raw response into named columns.

When the output file already exists, the new columns are merged into it:
columns from earlier passes (other models, other tags) are preserved
untouched, so repeated invocations accumulate one wide table.`,
		Example: `  # Window extraction for one model
  relic-cli extract -i data/relic.csv -l logs/raw.jsonl -o data/aligned.csv \
    -m google/gemini-2.5-pro --window-col response_gemini

  # Line extraction into the same table
  relic-cli extract -i data/relic.csv -l logs/raw.jsonl -o data/aligned.csv \
    -m o3-2025-04-16 --line-col line_o3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var rules []align.Rule
			if windowCol != "" {
				rules = append(rules, align.Rule{Tag: "window", Column: windowCol})
			}
			if lineCol != "" {
				rules = append(rules, align.Rule{Tag: "line", Column: lineCol})
			}
			if textCol != "" {
				rules = append(rules, align.Rule{Tag: "text", Column: textCol})
			}
			if rawCol != "" {
				rules = append(rules, align.Rule{Column: rawCol})
			}
			if len(rules) == 0 && model != "" {
				rules = append(rules, align.Rule{Tag: "window", Column: align.ResponseColumn(model)})
			}

			input, err := dataset.ReadCSV(inputPath)
			if err != nil {
				return err
			}
			records, err := runlog.ReadAll(logPath)
			if err != nil {
				return err
			}

			aligned, err := align.Align(input, records, model, rules)
			if err != nil {
				return err
			}
			final, err := align.WriteAligned(outputPath, aligned)
			if err != nil {
				return err
			}
			fmt.Printf("wrote %d rows, %d columns to %s\n", len(final.Rows), len(final.Columns), outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "input CSV")
	cmd.Flags().StringVarP(&logPath, "log", "l", "", "JSONL run log")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "aligned CSV destination")
	cmd.Flags().StringVarP(&model, "model", "m", "", "only align records from this model")
	cmd.Flags().StringVar(&windowCol, "window-col", "", "destination column for <window> extraction")
	cmd.Flags().StringVar(&lineCol, "line-col", "", "destination column for <line> extraction")
	cmd.Flags().StringVar(&textCol, "text-col", "", "destination column for <text> extraction")
	cmd.Flags().StringVar(&rawCol, "raw-col", "", "destination column for the whole raw response")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("log")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
