package scoring

import (
	"context"
	"strings"

	"github.com/XiaoConstantine/relicbench/pkg/align"
	"github.com/XiaoConstantine/relicbench/pkg/dataset"
	"github.com/XiaoConstantine/relicbench/pkg/errors"
	"github.com/XiaoConstantine/relicbench/pkg/logging"
)

// notInSourceReason is written to a row's error column when its
// response cannot be fuzzily located in the book text.
const notInSourceReason = "Model generated window not found in primary source"

// ValidityReport summarizes one validity pass for one model.
type ValidityReport struct {
	Checked      int     `json:"checked"`
	InSource     int     `json:"in_source"`
	NotInSource  int     `json:"not_in_source"`
	SkippedEmpty int     `json:"skipped_empty"`
	InSourceRate float64 `json:"in_source_rate"`
}

// CheckValidity scores each non-empty response for one model against
// the full reference text of its book and annotates rows that fail the
// threshold. Empty responses are excluded from the denominator; failing
// rows get a diagnostic in the model's error column but keep their
// response text. The table is annotated in place.
func CheckValidity(t *dataset.Table, model string, books dataset.Books, threshold float64) (*ValidityReport, error) {
	respCol := align.ResponseColumn(model)
	errCol := align.ErrorColumn(model)
	if !t.HasColumn(respCol) {
		return nil, errors.WithFields(
			errors.New(errors.ResourceNotFound, "table has no response column for model"),
			errors.Fields{"model": model, "column": respCol})
	}
	t.EnsureColumn(errCol)

	report := &ValidityReport{}
	for _, row := range t.Rows {
		response := row[respCol]
		if strings.TrimSpace(response) == "" {
			report.SkippedEmpty++
			continue
		}

		bookText, ok := books.JoinedText(row[dataset.ColBookTitle])
		if !ok {
			return nil, errors.WithFields(
				errors.New(errors.ResourceNotFound, "book missing from reference corpus"),
				errors.Fields{"book_title": row[dataset.ColBookTitle]})
		}

		report.Checked++
		if PartialRatio(bookText, response) > threshold {
			report.InSource++
		} else {
			report.NotInSource++
			row[errCol] = notInSourceReason
		}
	}

	if report.Checked > 0 {
		report.InSourceRate = float64(report.InSource) / float64(report.Checked)
	}
	logging.GetLogger().Info(context.TODO(), "validity model=%s in_source=%d/%d skipped_empty=%d",
		model, report.InSource, report.Checked, report.SkippedEmpty)
	return report, nil
}
