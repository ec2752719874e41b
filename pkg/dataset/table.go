package dataset

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/XiaoConstantine/relicbench/pkg/errors"
	"github.com/XiaoConstantine/relicbench/pkg/logging"
)

// Standard column names shared across the pipeline.
const (
	ColUUID          = "uuid"
	ColBookTitle     = "book_title"
	ColCommenter     = "commenter"
	ColAnswerQuote   = "answer_quote_text"
	ColAnswerIdx     = "answer_quote_idx"
	ColMaskedExcerpt = "Full_Mask_comment"
	ColHumanEvalSet  = "human_eval_set"
	ColCloseReading  = "close_reading_example"
)

// Key identifies one unit of work across the log and tables.
type Key struct {
	UUID      string
	BookTitle string
}

// Table is an ordered-column, row-oriented view over a CSV file. All cells
// are strings; empty string stands for a missing value, matching how the
// CSV snapshots round-trip nulls.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// NewTable creates an empty table with the given column order.
func NewTable(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// ReadCSV loads a table from disk. The first record is the header.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.ResourceNotFound, "failed to open input table"),
			errors.Fields{"path": path})
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.InvalidInput, "failed to parse CSV"),
			errors.Fields{"path": path})
	}
	if len(records) == 0 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "CSV file has no header row"),
			errors.Fields{"path": path})
	}

	t := NewTable(records[0])
	for _, rec := range records[1:] {
		row := make(map[string]string, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// WriteCSV writes the table to disk, creating parent directories as needed.
func (t *Table) WriteCSV(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, errors.Unknown, "failed to create output directory")
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.Unknown, "failed to create output table"),
			errors.Fields{"path": path})
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return errors.Wrap(err, errors.Unknown, "failed to write CSV header")
	}
	rec := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			rec[i] = row[col]
		}
		if err := w.Write(rec); err != nil {
			return errors.Wrap(err, errors.Unknown, "failed to write CSV row")
		}
	}
	w.Flush()
	return w.Error()
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// EnsureColumn appends the column if it is not already present. Existing
// rows get an empty value.
func (t *Table) EnsureColumn(name string) {
	if t.HasColumn(name) {
		return
	}
	t.Columns = append(t.Columns, name)
}

// Append adds a row. Columns unknown to the table are ignored.
func (t *Table) Append(row map[string]string) {
	r := make(map[string]string, len(t.Columns))
	for _, col := range t.Columns {
		r[col] = row[col]
	}
	t.Rows = append(t.Rows, r)
}

// Limit returns a view holding at most n rows. Zero or negative n keeps
// all rows.
func (t *Table) Limit(n int) *Table {
	if n <= 0 || n >= len(t.Rows) {
		return t
	}
	return &Table{Columns: t.Columns, Rows: t.Rows[:n]}
}

// KeyOf builds the composite join key for a row.
func KeyOf(row map[string]string) Key {
	return Key{UUID: row[ColUUID], BookTitle: row[ColBookTitle]}
}

// HasJoinKeys reports whether the table carries the composite-key columns
// required for alignment and merging.
func (t *Table) HasJoinKeys() bool {
	return t.HasColumn(ColUUID) && t.HasColumn(ColBookTitle)
}

// MergeColumns overlays src's columns onto dst by (uuid, book_title).
// dst's row set is authoritative: matched rows take src's values for src's
// columns, columns only dst has are preserved untouched, and src rows with
// no dst counterpart are skipped. Returns MergeConflict when dst lacks the
// join keys; the caller should then overwrite wholesale instead.
func MergeColumns(dst, src *Table) error {
	if !dst.HasJoinKeys() {
		return errors.New(errors.MergeConflict,
			"destination table lacks uuid/book_title columns, cannot merge")
	}
	if !src.HasJoinKeys() {
		return errors.New(errors.MergeConflict,
			"source table lacks uuid/book_title columns, cannot merge")
	}

	index := make(map[Key]map[string]string, len(dst.Rows))
	for _, row := range dst.Rows {
		index[KeyOf(row)] = row
	}

	for _, col := range src.Columns {
		dst.EnsureColumn(col)
	}

	skipped := 0
	for _, srcRow := range src.Rows {
		dstRow, ok := index[KeyOf(srcRow)]
		if !ok {
			skipped++
			continue
		}
		for _, col := range src.Columns {
			dstRow[col] = srcRow[col]
		}
	}
	if skipped > 0 {
		logging.GetLogger().Debug(context.TODO(), "merge skipped %d source rows absent from destination", skipped)
	}
	return nil
}

// ParseBool interprets the boolean-flag cell encodings that survive CSV
// round trips through different tools ("True", "true", "1").
func ParseBool(cell string) bool {
	switch strings.TrimSpace(cell) {
	case "True", "true", "TRUE", "1":
		return true
	default:
		return false
	}
}
