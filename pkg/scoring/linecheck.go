package scoring

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/XiaoConstantine/relicbench/pkg/align"
	"github.com/XiaoConstantine/relicbench/pkg/dataset"
	"github.com/XiaoConstantine/relicbench/pkg/errors"
	"github.com/XiaoConstantine/relicbench/pkg/logging"
)

// Column names for one model's line-distance pass.
func LineExactColumn(model string) string    { return "line_exact_" + model }
func LineWithin5Column(model string) string  { return "line_within5_" + model }
func LineWithin20Column(model string) string { return "line_within20_" + model }

var firstIntPattern = regexp.MustCompile(`\d+`)

// ExtractLineNumber pulls a predicted line number out of a raw
// response, preferring in order: the whole response parsed as a number,
// the content of a <line> tag, the first bare integer anywhere in the
// text. The last step is a heuristic and can misfire when the response
// restates an excerpt that itself contains numbers.
func ExtractLineNumber(response string) (int, bool) {
	trimmed := strings.TrimSpace(response)
	if trimmed == "" {
		return 0, false
	}
	if n, ok := dataset.ParseLineIdx(trimmed); ok {
		return n, true
	}
	if tagged := align.ExtractTag(trimmed, "line"); tagged != "" {
		if m := firstIntPattern.FindString(tagged); m != "" {
			if n, err := strconv.Atoi(m); err == nil {
				return n, true
			}
		}
	}
	if m := firstIntPattern.FindString(trimmed); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return n, true
		}
	}
	return 0, false
}

// LineReport summarizes one line-distance pass for one model over one
// subset.
type LineReport struct {
	// Total is every row in the subset; TotalValid only rows where
	// both a prediction and a ground-truth line were obtainable.
	Total        int     `json:"total"`
	TotalValid   int     `json:"total_valid"`
	Exact        int     `json:"exact"`
	Within5      int     `json:"within5"`
	Within20     int     `json:"within20"`
	ExactRate    float64 `json:"exact_rate"`
	Within5Rate  float64 `json:"within5_rate"`
	Within20Rate float64 `json:"within20_rate"`
}

// CheckLines classifies each row's predicted line number against the
// ground-truth line into exact / within-5 / within-20 buckets. Rows
// where either number is unobtainable are classified false on all
// three buckets and excluded from TotalValid. Rates are over
// TotalValid. The table is annotated in place.
func CheckLines(t *dataset.Table, model string, filterCol string) (*LineReport, error) {
	respCol := align.ResponseColumn(model)
	if !t.HasColumn(respCol) {
		return nil, errors.WithFields(
			errors.New(errors.ResourceNotFound, "table has no response column for model"),
			errors.Fields{"model": model, "column": respCol})
	}
	if filterCol != "" && !t.HasColumn(filterCol) {
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "subset filter column not in table"),
			errors.Fields{"column": filterCol})
	}
	exactCol := LineExactColumn(model)
	within5Col := LineWithin5Column(model)
	within20Col := LineWithin20Column(model)
	t.EnsureColumn(exactCol)
	t.EnsureColumn(within5Col)
	t.EnsureColumn(within20Col)

	report := &LineReport{}
	for _, row := range t.Rows {
		if filterCol != "" && !dataset.ParseBool(row[filterCol]) {
			continue
		}
		report.Total++

		pred, predOK := ExtractLineNumber(row[respCol])
		truth, truthOK := dataset.ParseLineIdx(row[dataset.ColAnswerIdx])

		if !predOK || !truthOK {
			row[exactCol] = "False"
			row[within5Col] = "False"
			row[within20Col] = "False"
			continue
		}
		report.TotalValid++

		diff := pred - truth
		if diff < 0 {
			diff = -diff
		}
		exact := diff == 0
		within5 := diff <= 5
		within20 := diff <= 20

		row[exactCol] = formatBool(exact)
		row[within5Col] = formatBool(within5)
		row[within20Col] = formatBool(within20)

		if exact {
			report.Exact++
		}
		if within5 {
			report.Within5++
		}
		if within20 {
			report.Within20++
		}
	}

	if report.TotalValid > 0 {
		report.ExactRate = float64(report.Exact) / float64(report.TotalValid)
		report.Within5Rate = float64(report.Within5) / float64(report.TotalValid)
		report.Within20Rate = float64(report.Within20) / float64(report.TotalValid)
	}
	logging.GetLogger().Info(context.TODO(), "lines model=%s subset=%s exact=%d/%d within5=%d within20=%d",
		model, subsetName(filterCol), report.Exact, report.TotalValid, report.Within5, report.Within20)
	return report, nil
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
