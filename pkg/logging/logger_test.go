package logging

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type MockOutput struct {
	entries []LogEntry
	mu      sync.Mutex
	closed  bool
}

func NewMockOutput() *MockOutput {
	return &MockOutput{
		entries: make([]LogEntry, 0),
	}
}

func (m *MockOutput) Write(entry LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("output is closed")
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockOutput) Sync() error {
	return nil
}

func (m *MockOutput) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MockOutput) GetEntries() []LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries
}

func TestNewLogger(t *testing.T) {
	mockOutput := NewMockOutput()
	defaultFields := map[string]interface{}{
		"service": "relicbench",
		"version": "1.0",
	}

	cfg := Config{
		Severity:      INFO,
		Outputs:       []Output{mockOutput},
		DefaultFields: defaultFields,
	}

	logger := NewLogger(cfg)

	assert.Equal(t, INFO, logger.severity)
	assert.Equal(t, defaultFields, logger.fields)
}

func TestSeverityFiltering(t *testing.T) {
	mockOutput := NewMockOutput()
	logger := NewLogger(Config{Severity: WARN, Outputs: []Output{mockOutput}})

	ctx := context.Background()
	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message")

	entries := mockOutput.GetEntries()
	assert.Len(t, entries, 2)
	assert.Equal(t, WARN, entries[0].Severity)
	assert.Equal(t, ERROR, entries[1].Severity)
}

func TestContextModelAndTokens(t *testing.T) {
	mockOutput := NewMockOutput()
	logger := NewLogger(Config{Severity: DEBUG, Outputs: []Output{mockOutput}})

	ctx := WithModel(context.Background(), "openai/gpt-4o")
	ctx = WithTokenInfo(ctx, &TokenInfo{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15})

	logger.Info(ctx, "completed row %d", 7)

	entries := mockOutput.GetEntries()
	assert.Len(t, entries, 1)
	assert.Equal(t, "openai/gpt-4o", entries[0].Model)
	assert.Equal(t, 15, entries[0].TokenInfo.TotalTokens)
	assert.Equal(t, "completed row 7", entries[0].Message)
}

func TestDefaultFieldsApplied(t *testing.T) {
	mockOutput := NewMockOutput()
	logger := NewLogger(Config{
		Severity:      INFO,
		Outputs:       []Output{mockOutput},
		DefaultFields: map[string]interface{}{"run": "task3"},
	})

	logger.Info(context.Background(), "started")

	entries := mockOutput.GetEntries()
	assert.Len(t, entries, 1)
	assert.Equal(t, "task3", entries[0].Fields["run"])
}

func TestGlobalLogger(t *testing.T) {
	logger1 := GetLogger()
	assert.NotNil(t, logger1)

	custom := NewLogger(Config{Severity: DEBUG, Outputs: []Output{NewMockOutput()}})
	SetLogger(custom)
	assert.Equal(t, custom, GetLogger())

	SetLogger(nil)
	assert.NotNil(t, GetLogger())
}
