package executor

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaoConstantine/relicbench/pkg/dataset"
	"github.com/XiaoConstantine/relicbench/pkg/prompts"
	"github.com/XiaoConstantine/relicbench/pkg/provider"
	"github.com/XiaoConstantine/relicbench/pkg/runlog"
)

// mockCompleter fails the first failUntil calls, then succeeds.
type mockCompleter struct {
	mu        sync.Mutex
	calls     int
	failUntil int
	model     string
}

func (m *mockCompleter) Complete(_ context.Context, prompt string) (*provider.Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls <= m.failUntil {
		return nil, fmt.Errorf("simulated provider failure %d", m.calls)
	}
	return &provider.Completion{
		Content: "echo: " + prompt[:min(20, len(prompt))],
		Usage:   &provider.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		ID:      fmt.Sprintf("cmpl-%d", m.calls),
	}, nil
}

func (m *mockCompleter) ModelID() string {
	if m.model == "" {
		return "mock/model"
	}
	return m.model
}

func (m *mockCompleter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func testBuilder(t *testing.T) *prompts.Builder {
	t.Helper()
	b, err := prompts.NewBuilder(2, "v1_text_simple", nil)
	require.NoError(t, err)
	return b
}

func testRows(n int) []dataset.InputRow {
	rows := make([]dataset.InputRow, n)
	for i := range rows {
		rows[i] = dataset.InputRow{
			Index:         i,
			UUID:          fmt.Sprintf("uuid-%d", i),
			BookTitle:     "Aeneid",
			MaskedExcerpt: "The poet invokes the muse in [MASKED] before the storm.",
		}
	}
	return rows
}

func noSleep(_ context.Context, _ time.Duration) error { return nil }

func TestRunAppendsOneRecordPerRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.jsonl")
	w, err := runlog.OpenWriter(path)
	require.NoError(t, err)
	defer w.Close()

	mock := &mockCompleter{}
	exec := New(mock, testBuilder(t), w, WithConcurrency(2), withSleep(noSleep))

	summary, err := exec.Run(context.Background(), testRows(3), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 0, summary.Skipped)

	records, err := runlog.ReadAll(path)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, rec := range records {
		assert.Equal(t, runlog.StatusOK, rec.Status)
		assert.Equal(t, "mock/model", rec.Model)
		assert.Equal(t, summary.RunID, rec.RunID)
		assert.Equal(t, 2, rec.Task)
		assert.NotEmpty(t, rec.Response())
		require.NotNil(t, rec.Usage)
		assert.Equal(t, 15, rec.Usage.TotalTokens)
	}
}

func TestRetryBoundOnPersistentFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.jsonl")
	w, err := runlog.OpenWriter(path)
	require.NoError(t, err)
	defer w.Close()

	mock := &mockCompleter{failUntil: 1 << 30}
	exec := New(mock, testBuilder(t), w, WithMaxAttempts(3), withSleep(noSleep))

	summary, err := exec.Run(context.Background(), testRows(1), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)

	// The attempt budget is total calls, not retries after the first.
	assert.Equal(t, 3, mock.callCount())

	records, err := runlog.ReadAll(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, runlog.StatusError, records[0].Status)
	require.NotNil(t, records[0].Error)
	assert.Contains(t, *records[0].Error, "all attempts exhausted")
}

func TestTransientFailureRecovers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.jsonl")
	w, err := runlog.OpenWriter(path)
	require.NoError(t, err)
	defer w.Close()

	mock := &mockCompleter{failUntil: 1}
	exec := New(mock, testBuilder(t), w, withSleep(noSleep))

	summary, err := exec.Run(context.Background(), testRows(1), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 2, mock.callCount())

	records, err := runlog.ReadAll(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, runlog.StatusOK, records[0].Status)
}

func TestResumeSkipsCompletedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.jsonl")
	w, err := runlog.OpenWriter(path)
	require.NoError(t, err)
	defer w.Close()

	rows := testRows(2)
	done := map[runlog.Key]runlog.Record{
		{UUID: rows[0].UUID, BookTitle: rows[0].BookTitle, Model: "mock/model"}: {
			UUID: rows[0].UUID, BookTitle: rows[0].BookTitle,
			Model: "mock/model", Status: runlog.StatusOK,
		},
	}

	mock := &mockCompleter{}
	exec := New(mock, testBuilder(t), w, withSleep(noSleep))

	summary, err := exec.Run(context.Background(), rows, done)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, mock.callCount())

	records, err := runlog.ReadAll(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, rows[1].UUID, records[0].UUID)
}

func TestErrorRecordIsRetriedOnResume(t *testing.T) {
	// A prior error record must not suppress re-execution.
	path := filepath.Join(t.TempDir(), "raw.jsonl")
	w, err := runlog.OpenWriter(path)
	require.NoError(t, err)
	defer w.Close()

	rows := testRows(1)
	done := map[runlog.Key]runlog.Record{
		{UUID: rows[0].UUID, BookTitle: rows[0].BookTitle, Model: "mock/model"}: {
			UUID: rows[0].UUID, BookTitle: rows[0].BookTitle,
			Model: "mock/model", Status: runlog.StatusError,
		},
	}

	mock := &mockCompleter{}
	exec := New(mock, testBuilder(t), w, withSleep(noSleep))

	summary, err := exec.Run(context.Background(), rows, done)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 1, summary.Succeeded)
}

func TestPromptFailureSkipsProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.jsonl")
	w, err := runlog.OpenWriter(path)
	require.NoError(t, err)
	defer w.Close()

	rows := testRows(1)
	rows[0].MaskedExcerpt = ""

	mock := &mockCompleter{}
	exec := New(mock, testBuilder(t), w, withSleep(noSleep))

	summary, err := exec.Run(context.Background(), rows, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, mock.callCount())

	records, err := runlog.ReadAll(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, runlog.StatusError, records[0].Status)
	require.NotNil(t, records[0].Error)
}

func TestCanceledContextStopsRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.jsonl")
	w, err := runlog.OpenWriter(path)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := &mockCompleter{}
	exec := New(mock, testBuilder(t), w, withSleep(noSleep))

	_, err = exec.Run(ctx, testRows(5), nil)
	assert.Error(t, err)
}

func TestRunIDIsStable(t *testing.T) {
	w, err := runlog.OpenWriter(filepath.Join(t.TempDir(), "raw.jsonl"))
	require.NoError(t, err)
	defer w.Close()

	exec := New(&mockCompleter{}, testBuilder(t), w, WithRunID("resume-me"))
	assert.Equal(t, "resume-me", exec.RunID())
}
