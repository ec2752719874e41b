package align

import (
	"context"
	"os"

	"github.com/XiaoConstantine/relicbench/pkg/dataset"
	"github.com/XiaoConstantine/relicbench/pkg/errors"
	"github.com/XiaoConstantine/relicbench/pkg/logging"
	"github.com/XiaoConstantine/relicbench/pkg/runlog"
)

// Rule maps one tagged span of the raw response to a destination
// column. An empty Tag copies the whole raw response.
type Rule struct {
	Tag    string
	Column string
}

// ResponseColumn names the column holding a model's extracted response.
func ResponseColumn(model string) string {
	return "response_" + model
}

// ErrorColumn names the column holding per-row diagnostic reasons for a
// model, written later by the scoring passes.
func ErrorColumn(model string) string {
	return ResponseColumn(model) + "_ERROR"
}

type pairKey struct {
	uuid string
	book string
}

// Align joins the input table against the log's logical view for one
// model and applies each extraction rule, producing a new table. Input
// rows with no log entry for the model are dropped from the result, not
// nulled. Rows whose record has status=error yield empty extractions.
func Align(input *dataset.Table, records []runlog.Record, model string, rules []Rule) (*dataset.Table, error) {
	if !input.HasJoinKeys() {
		return nil, errors.New(errors.InvalidInput, "input table lacks uuid/book_title join keys")
	}
	if len(rules) == 0 {
		return nil, errors.New(errors.InvalidInput, "no extraction rules given")
	}

	// Scan in file order so duplicate pairs resolve last-write-wins,
	// deterministically, even when an unfiltered log mixes models.
	pairs := make(map[pairKey]runlog.Record)
	for _, rec := range records {
		if rec.UUID == "" || rec.BookTitle == "" {
			continue
		}
		if model != "" && rec.Key().Model != model {
			continue
		}
		pairs[pairKey{uuid: rec.UUID, book: rec.BookTitle}] = rec
	}

	columns := append([]string(nil), input.Columns...)
	out := dataset.NewTable(columns)
	for _, rule := range rules {
		out.EnsureColumn(rule.Column)
	}

	matched := 0
	for _, row := range input.Rows {
		rec, ok := pairs[pairKey{uuid: row[dataset.ColUUID], book: row[dataset.ColBookTitle]}]
		if !ok {
			continue
		}
		matched++

		merged := make(map[string]string, len(row)+len(rules))
		for k, v := range row {
			merged[k] = v
		}
		for _, rule := range rules {
			merged[rule.Column] = applyRule(&rec, rule)
		}
		out.Append(merged)
	}

	logging.GetLogger().Info(context.TODO(), "aligned %d/%d rows for model %s",
		matched, len(input.Rows), model)
	return out, nil
}

func applyRule(rec *runlog.Record, rule Rule) string {
	if rec.Status != runlog.StatusOK {
		return ""
	}
	response := rec.Response()
	if rule.Tag == "" {
		return response
	}
	return ExtractTag(response, rule.Tag)
}

// WriteAligned persists an aligned table at path, merging into any
// table already there. Columns produced by this pass overwrite or add;
// every other destination column is preserved untouched, so passes for
// different models accumulate into one wide table. A destination
// lacking the join keys cannot be merged safely; it is overwritten
// wholesale with a warning.
func WriteAligned(path string, aligned *dataset.Table) (*dataset.Table, error) {
	logger := logging.GetLogger()

	final := aligned
	if _, err := os.Stat(path); err == nil {
		dst, err := dataset.ReadCSV(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.InvalidInput, "failed to read existing aligned table")
		}
		if !dst.HasJoinKeys() {
			logger.Warn(context.TODO(),
				"existing table at %s lacks uuid/book_title columns, overwriting wholesale", path)
		} else {
			if err := dataset.MergeColumns(dst, aligned); err != nil {
				return nil, err
			}
			final = dst
		}
	}

	if err := final.WriteCSV(path); err != nil {
		return nil, err
	}
	return final, nil
}
