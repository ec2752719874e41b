// Package runlog is the durable system of record for benchmark runs: an
// append-only, line-delimited JSON log of completed (or failed) model
// calls, plus the logical last-write-wins view consumers read.
package runlog

import (
	"github.com/XiaoConstantine/relicbench/pkg/provider"
)

// Record statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Key is the composite identity of one unit of work in the log.
type Key struct {
	UUID      string
	BookTitle string
	Model     string
}

// Record is one completed or failed unit of work. Records are immutable
// once appended; a re-attempt appends a new record with the same key.
type Record struct {
	RowIndex  int    `json:"row_index"`
	UUID      string `json:"uuid"`
	BookTitle string `json:"book_title"`
	Commenter string `json:"commenter,omitempty"`

	RunID         string  `json:"run_id,omitempty"`
	Task          int     `json:"task,omitempty"`
	PromptVersion string  `json:"prompt_version,omitempty"`
	Model         string  `json:"model"`
	APIModel      string  `json:"api_model,omitempty"`
	CompletionID  string  `json:"completion_id,omitempty"`
	Created       int64   `json:"created,omitempty"`
	Temperature   float64 `json:"temperature"`

	TimestampStart string `json:"timestamp_start,omitempty"`
	TimestampEnd   string `json:"timestamp_end,omitempty"`
	DurationMs     int64  `json:"duration_ms,omitempty"`

	Status      string          `json:"status"`
	ResponseRaw *string         `json:"response_raw"`
	Usage       *provider.Usage `json:"usage"`
	Error       *string         `json:"error"`
}

// Key returns the record's composite identity. An absent model is keyed
// as "unknown" so malformed producers still collapse consistently.
func (r *Record) Key() Key {
	model := r.Model
	if model == "" {
		model = "unknown"
	}
	return Key{UUID: r.UUID, BookTitle: r.BookTitle, Model: model}
}

// Response returns the raw response text, empty when absent.
func (r *Record) Response() string {
	if r.ResponseRaw == nil {
		return ""
	}
	return *r.ResponseRaw
}
