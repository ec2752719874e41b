package scoring

import (
	"context"
	"strings"

	"github.com/XiaoConstantine/relicbench/pkg/align"
	"github.com/XiaoConstantine/relicbench/pkg/dataset"
	"github.com/XiaoConstantine/relicbench/pkg/errors"
	"github.com/XiaoConstantine/relicbench/pkg/logging"
)

// CorrectnessColumn names the per-row classification column for one
// model's correctness pass.
func CorrectnessColumn(model string) string {
	return "correctness_" + model + "_FUZZY_MATCH"
}

// CorrectnessReport summarizes one correctness pass for one model over
// one subset.
type CorrectnessReport struct {
	// Total is the denominator: every row in the subset, including
	// rows that could not be scored.
	Total          int     `json:"total"`
	Scored         int     `json:"scored"`
	Correct        int     `json:"correct"`
	Incorrect      int     `json:"incorrect"`
	Unscoreable    int     `json:"unscoreable"`
	Accuracy       float64 `json:"accuracy"` // correct / total
	AvgLengthRatio float64 `json:"avg_length_ratio"`
}

// CheckCorrectness fuzzily compares each response for one model against
// the row's ground-truth quotation. A row is scoreable when ground
// truth is present, the response is non-empty, and no prior validity
// pass flagged it; unscoreable rows get an empty classification cell,
// distinct from "False". filterCol, when non-empty, restricts the pass
// to rows where that boolean column is true; rows outside the subset
// are neither counted nor annotated. The table is annotated in place.
func CheckCorrectness(t *dataset.Table, model string, threshold float64, filterCol string) (*CorrectnessReport, error) {
	respCol := align.ResponseColumn(model)
	errCol := align.ErrorColumn(model)
	corrCol := CorrectnessColumn(model)
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
	t.EnsureColumn(corrCol)

	report := &CorrectnessReport{}
	lengthRatioSum := 0.0
	for _, row := range t.Rows {
		if filterCol != "" && !dataset.ParseBool(row[filterCol]) {
			continue
		}
		report.Total++

		truth := row[dataset.ColAnswerQuote]
		response := row[respCol]
		scoreable := strings.TrimSpace(truth) != "" &&
			strings.TrimSpace(response) != "" &&
			row[errCol] == ""

		if !scoreable {
			report.Unscoreable++
			row[corrCol] = ""
			continue
		}

		report.Scored++
		lengthRatioSum += float64(len(response)) / float64(len(truth))
		if PartialRatio(truth, response) > threshold {
			report.Correct++
			row[corrCol] = "True"
		} else {
			report.Incorrect++
			row[corrCol] = "False"
		}
	}

	if report.Total > 0 {
		report.Accuracy = float64(report.Correct) / float64(report.Total)
	}
	if report.Scored > 0 {
		report.AvgLengthRatio = lengthRatioSum / float64(report.Scored)
	}
	logging.GetLogger().Info(context.TODO(), "correctness model=%s subset=%s correct=%d/%d",
		model, subsetName(filterCol), report.Correct, report.Total)
	return report, nil
}

func subsetName(filterCol string) string {
	if filterCol == "" {
		return "full_set"
	}
	return filterCol
}
