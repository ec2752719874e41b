package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/XiaoConstantine/relicbench/pkg/dataset"
)

func NewSampleCommand() *cobra.Command {
	var (
		inputPath  string
		outputPath string
		column     string
		total      int
		seed       int64
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Draw a category-balanced random sample from a CSV",
		Long: `Sample rows so that each distinct value of the balance column is
represented as evenly as the data allows. When the requested total does
not divide evenly, the remainder is spread over randomly chosen
categories; categories with too few rows contribute what they have.`,
		Example: `  relic-cli sample -i data/relic.csv -o data/sample.csv \
    --column book_title --total 40 --seed 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := dataset.ReadCSV(inputPath)
			if err != nil {
				return err
			}

			sampled, quotas, err := dataset.BalancedSample(table, column, total, seed)
			if err != nil {
				return err
			}
			if err := sampled.WriteCSV(outputPath); err != nil {
				return err
			}

			categories := make([]string, 0, len(quotas))
			for cat := range quotas {
				categories = append(categories, cat)
			}
			sort.Strings(categories)
			for _, cat := range categories {
				fmt.Printf("%s: %d\n", cat, quotas[cat])
			}
			fmt.Printf("wrote %d rows to %s\n", len(sampled.Rows), outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "input CSV")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "sampled CSV destination")
	cmd.Flags().StringVar(&column, "column", "book_title", "column to balance over")
	cmd.Flags().IntVar(&total, "total", 40, "number of rows to sample")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}
