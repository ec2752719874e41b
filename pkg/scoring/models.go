package scoring

import (
	"sort"
	"strings"

	"github.com/XiaoConstantine/relicbench/pkg/dataset"
)

// defaultModels is the fallback when a table carries no response
// columns to discover models from.
var defaultModels = []string{
	"human",
	"gemini-2.5-pro-preview-05-06",
	"o3-2025-04-16",
	"gpt-4o-2024-11-20",
	"claude-3-7-sonnet-20250219",
	"deepseek-r1",
}

// DiscoverModels derives the set of models present in a table from its
// response_<model> columns, so scoring follows whatever an aligned
// table actually contains instead of a hardcoded enumeration. Error
// columns are not models. Results are sorted; the static default is
// returned only when no response columns exist.
func DiscoverModels(t *dataset.Table) []string {
	var models []string
	for _, col := range t.Columns {
		name, ok := strings.CutPrefix(col, "response_")
		if !ok || name == "" || strings.HasSuffix(name, "_ERROR") {
			continue
		}
		models = append(models, name)
	}
	if len(models) == 0 {
		return append([]string(nil), defaultModels...)
	}
	sort.Strings(models)
	return models
}
