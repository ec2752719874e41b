package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Run.Model = "google/gemini-2.5-pro"
	cfg.Run.Task = 1
	cfg.Run.PromptVersion = "v1_relic_simple"
	cfg.Run.APIKey = "test-key"
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 5, cfg.Run.Concurrency)
	assert.Equal(t, 10, cfg.Run.BatchSize)
	assert.Equal(t, 3, cfg.Run.MaxAttempts)
	assert.Equal(t, 2, cfg.Run.BackoffBase)
	assert.Equal(t, 60, cfg.Run.BackoffCap)
	assert.Equal(t, 60, cfg.Run.Timeout)
	assert.Equal(t, ProviderOpenRouter, cfg.Run.Provider)
	assert.Equal(t, 80.0, cfg.Eval.ValidityThreshold)
	assert.Equal(t, 90.0, cfg.Eval.CorrectnessThreshold)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
run:
  model: google/gemini-2.5-pro
  task: 3
  prompt_version: v1_line_simple
  concurrency: 2
  temperature: 0.7
eval:
  correctness_threshold: 85
  check_lines: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "google/gemini-2.5-pro", cfg.Run.Model)
	assert.Equal(t, 3, cfg.Run.Task)
	assert.Equal(t, 2, cfg.Run.Concurrency)
	assert.Equal(t, 0.7, cfg.Run.Temperature)
	assert.Equal(t, 85.0, cfg.Eval.CorrectnessThreshold)
	assert.True(t, cfg.Eval.CheckLines)
	// Untouched fields keep their defaults.
	assert.Equal(t, 10, cfg.Run.BatchSize)
}

func TestLoadEmptyPathIsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("run: [not a mapping"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateRejectsMissingModel(t *testing.T) {
	cfg := validConfig()
	cfg.Run.Model = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadTask(t *testing.T) {
	cfg := validConfig()
	cfg.Run.Task = 9
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Run.Provider = "bedrock"
	assert.Error(t, cfg.Validate())
}

func TestValidateAPIKeyEnvFallback(t *testing.T) {
	cfg := validConfig()
	cfg.Run.APIKey = ""
	t.Setenv("OPENROUTER_API_KEY", "env-key")

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "env-key", cfg.Run.APIKey)
}

func TestValidateAnthropicEnvFallback(t *testing.T) {
	cfg := validConfig()
	cfg.Run.Provider = ProviderAnthropic
	cfg.Run.APIKey = ""
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-key")

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "anthropic-key", cfg.Run.APIKey)
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "2s", cfg.BackoffBase().String())
	assert.Equal(t, "1m0s", cfg.BackoffCap().String())
	assert.Equal(t, "1m0s", cfg.Timeout().String())
}
