// Package commands holds the relic-cli subcommands.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/XiaoConstantine/relicbench/pkg/config"
	"github.com/XiaoConstantine/relicbench/pkg/dataset"
	"github.com/XiaoConstantine/relicbench/pkg/executor"
	"github.com/XiaoConstantine/relicbench/pkg/prompts"
	"github.com/XiaoConstantine/relicbench/pkg/provider"
	"github.com/XiaoConstantine/relicbench/pkg/runlog"
)

func NewRunCommand() *cobra.Command {
	var (
		configPath  string
		inputPath   string
		logPath     string
		booksPath   string
		model       string
		providerArg string
		task        int
		version     string
		concurrency int
		limit       int
		temperature float64
		maxTokens   int
		timeout     int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute benchmark rows against a model and append results to a log",
		Long: `Run inference for every input row not already completed in the log.

Results are appended to a line-delimited JSON log as calls finish, one
record per row, successes and failures alike. Re-running with the same
log path skips rows that already succeeded, so an interrupted or
partially failed run can be resumed by invoking the same command again.`,
		Example: `  # Task 1 against OpenRouter
  relic-cli run -i data/relic.csv -l logs/raw.jsonl -b data/books.json \
    -m google/gemini-2.5-pro -t 1 -p v1_relic_simple

  # Line-number task with a row limit for a smoke test
  relic-cli run -i data/relic.csv -l logs/raw.jsonl -b data/books.json \
    -m o3-2025-04-16 -t 3 -p v1_line_simple --limit 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			// Flags override file values.
			if model != "" {
				cfg.Run.Model = model
			}
			if providerArg != "" {
				cfg.Run.Provider = providerArg
			}
			if task != 0 {
				cfg.Run.Task = task
			}
			if version != "" {
				cfg.Run.PromptVersion = version
			}
			if concurrency != 0 {
				cfg.Run.Concurrency = concurrency
			}
			if limit != 0 {
				cfg.Run.Limit = limit
			}
			if cmd.Flags().Changed("temperature") {
				cfg.Run.Temperature = temperature
			}
			if maxTokens != 0 {
				cfg.Run.MaxTokens = maxTokens
			}
			if timeout != 0 {
				cfg.Run.Timeout = timeout
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return runInference(cmd, cfg, inputPath, logPath, booksPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "optional YAML config file")
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "input table (CSV or Parquet)")
	cmd.Flags().StringVarP(&logPath, "log", "l", "", "append-only JSONL log path")
	cmd.Flags().StringVarP(&booksPath, "books", "b", "", "book sentences JSON (tasks 1 and 3)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "model identifier")
	cmd.Flags().StringVar(&providerArg, "provider", "", "provider: openrouter or anthropic")
	cmd.Flags().IntVarP(&task, "task", "t", 0, "task number (1-4)")
	cmd.Flags().StringVarP(&version, "prompt-version", "p", "", "prompt template version")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "max in-flight provider calls")
	cmd.Flags().IntVar(&limit, "limit", 0, "run only the first N rows")
	cmd.Flags().Float64Var(&temperature, "temperature", 0, "sampling temperature")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "completion token cap")
	cmd.Flags().IntVar(&timeout, "timeout", 0, "per-call timeout in seconds")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("log")
	return cmd
}

// runInference wires the validated config into the pipeline. Everything
// fatal is surfaced here, before any remote call goes out.
func runInference(cmd *cobra.Command, cfg *config.Config, inputPath, logPath, booksPath string) error {
	table, err := dataset.ReadInput(inputPath)
	if err != nil {
		return err
	}
	if cfg.Run.Limit > 0 {
		table = table.Limit(cfg.Run.Limit)
	}
	rows, err := dataset.InputRows(table)
	if err != nil {
		return err
	}

	var books dataset.Books
	if booksPath != "" {
		if books, err = dataset.LoadBooks(booksPath); err != nil {
			return err
		}
	}

	builder, err := prompts.NewBuilder(cfg.Run.Task, cfg.Run.PromptVersion, books)
	if err != nil {
		return err
	}

	completer, err := buildCompleter(cfg)
	if err != nil {
		return err
	}

	// Prior successes in the same log are skipped on resume.
	var done map[runlog.Key]runlog.Record
	if _, statErr := os.Stat(logPath); statErr == nil {
		if done, err = runlog.View(logPath, completer.ModelID()); err != nil {
			return err
		}
	}

	writer, err := runlog.OpenWriter(logPath)
	if err != nil {
		return err
	}
	defer writer.Close()

	exec := executor.New(completer, builder, writer,
		executor.WithConcurrency(cfg.Run.Concurrency),
		executor.WithBatchSize(cfg.Run.BatchSize),
		executor.WithMaxAttempts(cfg.Run.MaxAttempts),
		executor.WithBackoff(cfg.BackoffBase(), cfg.BackoffCap()),
		executor.WithCallTimeout(cfg.Timeout()),
		executor.WithTemperature(cfg.Run.Temperature),
	)

	summary, err := exec.Run(cmd.Context(), rows, done)
	if err != nil {
		return err
	}
	fmt.Printf("run %s: %d rows, %d ok, %d failed, %d skipped\n",
		summary.RunID, summary.Total, summary.Succeeded, summary.Failed, summary.Skipped)
	return nil
}

func buildCompleter(cfg *config.Config) (provider.Completer, error) {
	switch cfg.Run.Provider {
	case config.ProviderAnthropic:
		var opts []provider.AnthropicOption
		opts = append(opts, provider.WithAnthropicTemperature(cfg.Run.Temperature))
		if cfg.Run.MaxTokens > 0 {
			opts = append(opts, provider.WithAnthropicMaxTokens(cfg.Run.MaxTokens))
		}
		return provider.NewAnthropicClient(cfg.Run.Model, cfg.Run.APIKey, opts...)
	default:
		opts := []provider.OpenRouterOption{
			provider.WithAPIKey(cfg.Run.APIKey),
			provider.WithTemperature(cfg.Run.Temperature),
			provider.WithTimeout(cfg.Timeout()),
		}
		if cfg.Run.MaxTokens > 0 {
			opts = append(opts, provider.WithMaxTokens(cfg.Run.MaxTokens))
		}
		return provider.NewOpenRouterClient(cfg.Run.Model, opts...)
	}
}
