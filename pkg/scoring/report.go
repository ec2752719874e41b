package scoring

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/XiaoConstantine/relicbench/pkg/align"
	"github.com/XiaoConstantine/relicbench/pkg/dataset"
	"github.com/XiaoConstantine/relicbench/pkg/errors"
)

// SubsetReport groups the per-mode reports for one (model, subset)
// cell. Modes that did not run stay nil and are omitted from JSON.
type SubsetReport struct {
	Validity    *ValidityReport    `json:"validity,omitempty"`
	Correctness *CorrectnessReport `json:"correctness,omitempty"`
	Lines       *LineReport        `json:"lines,omitempty"`
}

// MetricsReport maps model, then subset name, to that cell's reports.
type MetricsReport map[string]map[string]*SubsetReport

func (m MetricsReport) cell(model, subset string) *SubsetReport {
	if m[model] == nil {
		m[model] = make(map[string]*SubsetReport)
	}
	if m[model][subset] == nil {
		m[model][subset] = &SubsetReport{}
	}
	return m[model][subset]
}

// WriteJSON persists the report, creating parent directories as needed.
func (m MetricsReport) WriteJSON(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, errors.Unknown, "failed to create report directory")
		}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.Unknown, "failed to marshal metrics report")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, errors.Unknown, "failed to write metrics report")
	}
	return nil
}

// Options configures one Evaluate run.
type Options struct {
	Models []string // empty discovers from the table

	// ValidityThreshold <= 0 skips the validity pass, matching runs
	// that have no reference corpus at hand.
	ValidityThreshold    float64
	CorrectnessThreshold float64
	Books                dataset.Books

	// SubsetColumns are boolean columns to re-run correctness over,
	// in addition to the full set.
	SubsetColumns []string

	// CheckLines enables the line-distance pass for tasks whose
	// responses carry line numbers rather than quotations.
	CheckLines bool
}

// Evaluate runs every configured scoring mode for every model over the
// full set and each named subset, annotating the table in place and
// returning the nested report. A model whose response column is absent
// from the table is skipped rather than fatal, so one report can be
// produced from partially aligned tables.
func Evaluate(t *dataset.Table, opts Options) (MetricsReport, error) {
	models := opts.Models
	if len(models) == 0 {
		models = DiscoverModels(t)
	}

	report := make(MetricsReport)
	for _, model := range models {
		if !t.HasColumn(align.ResponseColumn(model)) {
			continue
		}

		if opts.ValidityThreshold > 0 {
			v, err := CheckValidity(t, model, opts.Books, opts.ValidityThreshold)
			if err != nil {
				return nil, err
			}
			report.cell(model, "full_set").Validity = v
		}

		subsets := append([]string{""}, opts.SubsetColumns...)
		for _, filterCol := range subsets {
			name := subsetName(filterCol)

			c, err := CheckCorrectness(t, model, opts.CorrectnessThreshold, filterCol)
			if err != nil {
				return nil, err
			}
			report.cell(model, name).Correctness = c

			if opts.CheckLines {
				l, err := CheckLines(t, model, filterCol)
				if err != nil {
					return nil, err
				}
				report.cell(model, name).Lines = l
			}
		}
	}
	return report, nil
}
