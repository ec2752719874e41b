// Package executor drives benchmark rows through a model provider with
// bounded concurrency, retries for transient failures, and durable
// append-only logging of every outcome.
package executor

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/XiaoConstantine/relicbench/pkg/dataset"
	"github.com/XiaoConstantine/relicbench/pkg/errors"
	"github.com/XiaoConstantine/relicbench/pkg/logging"
	"github.com/XiaoConstantine/relicbench/pkg/prompts"
	"github.com/XiaoConstantine/relicbench/pkg/provider"
	"github.com/XiaoConstantine/relicbench/pkg/runlog"
)

const (
	defaultConcurrency = 5
	defaultBatchSize   = 10
	defaultMaxAttempts = 3
	defaultBackoffBase = 2 * time.Second
	defaultBackoffCap  = 60 * time.Second
	defaultCallTimeout = 60 * time.Second
)

// Executor submits prompts for input rows and records every outcome.
// One Executor targets one model; run several for a model sweep.
type Executor struct {
	completer provider.Completer
	builder   *prompts.Builder
	writer    *runlog.Writer

	concurrency int
	batchSize   int
	maxAttempts int
	backoffBase time.Duration
	backoffCap  time.Duration
	callTimeout time.Duration
	temperature float64
	runID       string

	// Injectable for tests; defaults to a context-aware sleep.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures an Executor.
type Option func(*Executor)

// WithConcurrency bounds the number of in-flight provider calls.
func WithConcurrency(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithBatchSize sets how many rows are dispatched between log syncs.
func WithBatchSize(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithMaxAttempts sets the total attempt budget per row, including the
// first try.
func WithMaxAttempts(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithBackoff sets the exponential backoff base delay and its ceiling.
func WithBackoff(base, ceiling time.Duration) Option {
	return func(e *Executor) {
		if base > 0 {
			e.backoffBase = base
		}
		if ceiling > 0 {
			e.backoffCap = ceiling
		}
	}
}

// WithCallTimeout bounds each individual provider call.
func WithCallTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.callTimeout = d
		}
	}
}

// WithTemperature records the sampling temperature in each log record.
// The provider itself must be configured with the same value.
func WithTemperature(t float64) Option {
	return func(e *Executor) { e.temperature = t }
}

// WithRunID overrides the generated run identifier, letting a resumed
// run keep the original one.
func WithRunID(id string) Option {
	return func(e *Executor) {
		if id != "" {
			e.runID = id
		}
	}
}

func withSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) { e.sleep = fn }
}

// New creates an Executor for one model against one prompt configuration.
func New(completer provider.Completer, builder *prompts.Builder, writer *runlog.Writer, opts ...Option) *Executor {
	e := &Executor{
		completer:   completer,
		builder:     builder,
		writer:      writer,
		concurrency: defaultConcurrency,
		batchSize:   defaultBatchSize,
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
		backoffCap:  defaultBackoffCap,
		callTimeout: defaultCallTimeout,
		runID:       uuid.New().String(),
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunID returns the identifier stamped on every record of this run.
func (e *Executor) RunID() string { return e.runID }

// Summary reports what a run did.
type Summary struct {
	RunID     string
	Total     int
	Skipped   int
	Succeeded int
	Failed    int
}

// Run executes every row not already completed in done, the logical log
// view from prior runs. Rows with an ok record for this model are
// skipped, which makes re-running against the same log idempotent.
// Outcomes are appended to the log as calls finish; the log is synced
// after every batch so an interrupted run loses at most the batch in
// flight.
func (e *Executor) Run(ctx context.Context, rows []dataset.InputRow, done map[runlog.Key]runlog.Record) (*Summary, error) {
	logger := logging.GetLogger()
	model := e.completer.ModelID()

	summary := &Summary{RunID: e.runID, Total: len(rows)}

	pending := make([]dataset.InputRow, 0, len(rows))
	for _, row := range rows {
		key := runlog.Key{UUID: row.UUID, BookTitle: row.BookTitle, Model: model}
		if prior, ok := done[key]; ok && prior.Status == runlog.StatusOK {
			summary.Skipped++
			continue
		}
		pending = append(pending, row)
	}

	logger.Info(ctx, "run %s: model=%s rows=%d pending=%d skipped=%d",
		e.runID, model, summary.Total, len(pending), summary.Skipped)

	var mu sync.Mutex
	for start := 0; start < len(pending); start += e.batchSize {
		if err := errors.CheckContext(ctx, "executor run"); err != nil {
			return summary, err
		}

		end := start + e.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		p := pool.New().WithMaxGoroutines(e.concurrency)
		for _, row := range batch {
			row := row
			p.Go(func() {
				rec := e.processRow(ctx, row, model)
				if err := e.writer.Append(rec); err != nil {
					logger.Error(ctx, "failed to append record for uuid=%s: %v", row.UUID, err)
				}
				mu.Lock()
				if rec.Status == runlog.StatusOK {
					summary.Succeeded++
				} else {
					summary.Failed++
				}
				mu.Unlock()
			})
		}
		p.Wait()

		if err := e.writer.Sync(); err != nil {
			return summary, errors.Wrap(err, errors.Unknown, "failed to sync log after batch")
		}
		logger.Debug(ctx, "run %s: batch %d-%d flushed", e.runID, start, end)
	}

	logger.Info(ctx, "run %s finished: ok=%d error=%d skipped=%d",
		e.runID, summary.Succeeded, summary.Failed, summary.Skipped)
	return summary, nil
}

// processRow builds the prompt, calls the provider with retries, and
// returns the record to append. It never returns an error: every
// failure mode becomes a status=error record.
func (e *Executor) processRow(ctx context.Context, row dataset.InputRow, model string) *runlog.Record {
	logger := logging.GetLogger()
	started := time.Now().UTC()

	rec := &runlog.Record{
		RowIndex:       row.Index,
		UUID:           row.UUID,
		BookTitle:      row.BookTitle,
		Commenter:      row.Commenter,
		RunID:          e.runID,
		Task:           e.builder.Task(),
		PromptVersion:  e.builder.Version(),
		Model:          model,
		Temperature:    e.temperature,
		TimestampStart: started.Format(time.RFC3339),
	}

	finish := func(status string, err error) *runlog.Record {
		ended := time.Now().UTC()
		rec.Status = status
		rec.TimestampEnd = ended.Format(time.RFC3339)
		rec.DurationMs = ended.Sub(started).Milliseconds()
		if err != nil {
			msg := err.Error()
			rec.Error = &msg
		}
		var tokens *logging.TokenInfo
		if rec.Usage != nil {
			tokens = &logging.TokenInfo{
				PromptTokens:     rec.Usage.PromptTokens,
				CompletionTokens: rec.Usage.CompletionTokens,
				TotalTokens:      rec.Usage.TotalTokens,
			}
		}
		logger.RequestOutcome(ctx, model, status, rec.DurationMs, tokens)
		return rec
	}

	prompt, err := e.builder.Build(row)
	if err != nil {
		// Prompt construction failures are deterministic; retrying
		// would burn the attempt budget for nothing.
		return finish(runlog.StatusError, err)
	}

	comp, err := e.completeWithRetry(ctx, prompt, row.UUID)
	if err != nil {
		return finish(runlog.StatusError, err)
	}

	rec.ResponseRaw = &comp.Content
	rec.Usage = comp.Usage
	rec.CompletionID = comp.ID
	rec.Created = comp.Created
	rec.APIModel = comp.APIModel
	return finish(runlog.StatusOK, nil)
}

// completeWithRetry calls the provider up to maxAttempts times with
// exponential backoff between attempts.
func (e *Executor) completeWithRetry(ctx context.Context, prompt, id string) (*provider.Completion, error) {
	logger := logging.GetLogger()

	var lastErr error
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(float64(e.backoffBase) * math.Pow(2, float64(attempt-1)))
			if backoff > e.backoffCap {
				backoff = e.backoffCap
			}
			logger.Debug(ctx, "uuid=%s attempt %d/%d failed, retrying in %v: %v",
				id, attempt, e.maxAttempts, backoff, lastErr)
			if err := e.sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
		comp, err := e.completer.Complete(callCtx, prompt)
		cancel()
		if err == nil {
			return comp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), errors.Canceled, "run canceled during retry")
		}
	}
	return nil, errors.WithFields(
		errors.Wrap(lastErr, errors.CompletionFailed, "all attempts exhausted"),
		errors.Fields{"attempts": e.maxAttempts})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), errors.Canceled, "run canceled during backoff")
	case <-t.C:
		return nil
	}
}
