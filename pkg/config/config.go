// Package config loads and validates run configuration from YAML, with
// environment fallbacks for credentials. CLI flags override file values;
// file values override defaults.
package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/XiaoConstantine/relicbench/pkg/errors"
)

// Provider names accepted by the run command.
const (
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
)

// RunConfig holds everything the executor needs for one inference run.
type RunConfig struct {
	Model         string  `yaml:"model" validate:"required"`
	Provider      string  `yaml:"provider" validate:"required,oneof=openrouter anthropic"`
	Task          int     `yaml:"task" validate:"required,min=1,max=4"`
	PromptVersion string  `yaml:"prompt_version" validate:"required"`
	Concurrency   int     `yaml:"concurrency" validate:"min=1"`
	BatchSize     int     `yaml:"batch_size" validate:"min=1"`
	MaxAttempts   int     `yaml:"max_attempts" validate:"min=1"`
	BackoffBase   int     `yaml:"backoff_base_seconds" validate:"min=1"`
	BackoffCap    int     `yaml:"backoff_cap_seconds" validate:"min=1,gtefield=BackoffBase"`
	Timeout       int     `yaml:"timeout_seconds" validate:"min=1"`
	Temperature   float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens     int     `yaml:"max_tokens" validate:"min=0"`
	Limit         int     `yaml:"limit" validate:"min=0"`

	// APIKey falls back to the provider's environment variable when
	// absent from the file.
	APIKey string `yaml:"api_key"`
}

// EvalConfig holds the scoring thresholds and subset selection.
type EvalConfig struct {
	// ValidityThreshold zero disables the validity pass.
	ValidityThreshold    float64  `yaml:"validity_threshold" validate:"gte=0,lte=100"`
	CorrectnessThreshold float64  `yaml:"correctness_threshold" validate:"gt=0,lte=100"`
	SubsetColumns        []string `yaml:"subset_columns"`
	CheckLines           bool     `yaml:"check_lines"`
}

// Config is the full file layout.
type Config struct {
	Run  RunConfig  `yaml:"run"`
	Eval EvalConfig `yaml:"eval"`
}

// Default returns a Config with the documented defaults filled in;
// required fields like model and prompt version stay empty.
func Default() *Config {
	return &Config{
		Run: RunConfig{
			Provider:    ProviderOpenRouter,
			Concurrency: 5,
			BatchSize:   10,
			MaxAttempts: 3,
			BackoffBase: 2,
			BackoffCap:  60,
			Timeout:     60,
		},
		Eval: EvalConfig{
			ValidityThreshold:    80,
			CorrectnessThreshold: 90,
			SubsetColumns:        []string{"human_eval_set", "close_reading_example"},
		},
	}
}

// Load reads path over the defaults. An empty path returns defaults
// unchanged, so a config file is optional.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.ResourceNotFound, "failed to read config file"),
			errors.Fields{"path": path})
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.InvalidInput, "failed to parse config file"),
			errors.Fields{"path": path})
	}
	return cfg, nil
}

// Validate resolves the credential fallback and checks every field.
// Called after flag overrides, before any remote call.
func (c *Config) Validate() error {
	if c.Run.APIKey == "" {
		c.Run.APIKey = os.Getenv(c.keyEnvVar())
	}

	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, errors.ValidationFailed, "invalid configuration")
	}
	return nil
}

func (c *Config) keyEnvVar() string {
	if c.Run.Provider == ProviderAnthropic {
		return "ANTHROPIC_API_KEY"
	}
	return "OPENROUTER_API_KEY"
}

// Durations converted from the integer-second fields.
func (c *Config) BackoffBase() time.Duration { return time.Duration(c.Run.BackoffBase) * time.Second }
func (c *Config) BackoffCap() time.Duration  { return time.Duration(c.Run.BackoffCap) * time.Second }
func (c *Config) Timeout() time.Duration     { return time.Duration(c.Run.Timeout) * time.Second }
