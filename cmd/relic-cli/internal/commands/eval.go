package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/XiaoConstantine/relicbench/pkg/config"
	"github.com/XiaoConstantine/relicbench/pkg/dataset"
	"github.com/XiaoConstantine/relicbench/pkg/errors"
	"github.com/XiaoConstantine/relicbench/pkg/scoring"
)

func NewEvalCommand() *cobra.Command {
	var (
		configPath           string
		inputPath            string
		outputPath           string
		metricsPath          string
		booksPath            string
		models               []string
		subsets              []string
		validityThreshold    float64
		correctnessThreshold float64
		checkLines           bool
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Score an aligned table for validity, correctness, and line distance",
		Long: `Evaluate every model found in the table's response_<model> columns
(or an explicit --model list) against ground truth.

The validity pass requires a book corpus and runs only when its
threshold is set; rows that fail it are excluded from correctness
scoring. Correctness re-runs over each named subset column in addition
to the full set. Line-distance buckets are computed when --check-lines
is given.`,
		Example: `  relic-cli eval -i data/aligned.csv -o data/aligned_RESULTS.csv \
    -b data/books.json --validity-threshold 80 --metrics metrics.json

  # Line-number task over the close-reading subset only
  relic-cli eval -i data/aligned.csv -o out.csv --check-lines \
    --subset close_reading_example`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("validity-threshold") {
				cfg.Eval.ValidityThreshold = validityThreshold
			} else if booksPath == "" {
				// No corpus at hand: skip the validity pass.
				cfg.Eval.ValidityThreshold = 0
			}
			if cmd.Flags().Changed("correctness-threshold") {
				cfg.Eval.CorrectnessThreshold = correctnessThreshold
			}
			if cmd.Flags().Changed("subset") {
				cfg.Eval.SubsetColumns = subsets
			}
			if checkLines {
				cfg.Eval.CheckLines = true
			}
			if cfg.Eval.ValidityThreshold > 0 && booksPath == "" {
				return errors.New(errors.InvalidInput,
					"validity check requires --books (or drop --validity-threshold to skip it)")
			}

			table, err := dataset.ReadCSV(inputPath)
			if err != nil {
				return err
			}

			var books dataset.Books
			if booksPath != "" {
				if books, err = dataset.LoadBooks(booksPath); err != nil {
					return err
				}
			}

			// Subset columns absent from this table are dropped rather
			// than fatal, so the defaults work on minimal tables.
			var subsetCols []string
			for _, col := range cfg.Eval.SubsetColumns {
				if table.HasColumn(col) {
					subsetCols = append(subsetCols, col)
				}
			}

			report, err := scoring.Evaluate(table, scoring.Options{
				Models:               models,
				ValidityThreshold:    cfg.Eval.ValidityThreshold,
				CorrectnessThreshold: cfg.Eval.CorrectnessThreshold,
				Books:                books,
				SubsetColumns:        subsetCols,
				CheckLines:           cfg.Eval.CheckLines,
			})
			if err != nil {
				return err
			}

			if outputPath != "" {
				if err := table.WriteCSV(outputPath); err != nil {
					return err
				}
			}
			if metricsPath != "" {
				if err := report.WriteJSON(metricsPath); err != nil {
					return err
				}
			}

			pretty, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(pretty))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "optional YAML config file")
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "aligned CSV to score")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "annotated CSV destination")
	cmd.Flags().StringVar(&metricsPath, "metrics", "", "metrics JSON destination")
	cmd.Flags().StringVarP(&booksPath, "books", "b", "", "book sentences JSON for the validity pass")
	cmd.Flags().StringSliceVarP(&models, "model", "m", nil, "models to score (default: discovered from columns)")
	cmd.Flags().StringSliceVar(&subsets, "subset", nil, "boolean subset columns to re-score over")
	cmd.Flags().Float64Var(&validityThreshold, "validity-threshold", 80, "fuzzy threshold for the in-source check")
	cmd.Flags().Float64Var(&correctnessThreshold, "correctness-threshold", 90, "fuzzy threshold for the ground-truth check")
	cmd.Flags().BoolVar(&checkLines, "check-lines", false, "also compute line-number distance buckets")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
