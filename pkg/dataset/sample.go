package dataset

import (
	"math/rand"
	"strings"

	"github.com/XiaoConstantine/relicbench/pkg/errors"
)

// BalancedSample draws up to total rows from the table, spreading the draw
// evenly over the distinct values of column. Categories with fewer rows
// than their quota contribute everything they have. The result row order
// is shuffled. A negative seed draws nondeterministically.
func BalancedSample(t *Table, column string, total int, seed int64) (*Table, map[string]int, error) {
	if !t.HasColumn(column) {
		return nil, nil, errors.WithFields(
			errors.New(errors.InvalidInput, "sampling column not found"),
			errors.Fields{"column": column, "available": strings.Join(t.Columns, ",")})
	}
	if total > len(t.Rows) {
		total = len(t.Rows)
	}
	// A header-only table (or one emptied by filtering) yields an empty
	// sample, not a division by zero below.
	if len(t.Rows) == 0 {
		return NewTable(t.Columns), map[string]int{}, nil
	}

	rng := rand.New(rand.NewSource(seed))
	if seed < 0 {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	// Group row indices by category, preserving first-seen category order
	// before the shuffle so remainder assignment is itself random.
	byCategory := make(map[string][]int)
	var categories []string
	for i, row := range t.Rows {
		v := row[column]
		if _, seen := byCategory[v]; !seen {
			categories = append(categories, v)
		}
		byCategory[v] = append(byCategory[v], i)
	}

	rng.Shuffle(len(categories), func(i, j int) {
		categories[i], categories[j] = categories[j], categories[i]
	})

	base := total / len(categories)
	remainder := total % len(categories)

	stats := make(map[string]int, len(categories))
	var picked []int
	for i, cat := range categories {
		quota := base
		if i < remainder {
			quota++
		}
		idxs := byCategory[cat]
		rng.Shuffle(len(idxs), func(a, b int) { idxs[a], idxs[b] = idxs[b], idxs[a] })
		if quota > len(idxs) {
			quota = len(idxs)
		}
		picked = append(picked, idxs[:quota]...)
		stats[cat] = quota
	}

	rng.Shuffle(len(picked), func(a, b int) { picked[a], picked[b] = picked[b], picked[a] })

	out := NewTable(t.Columns)
	for _, i := range picked {
		out.Rows = append(out.Rows, t.Rows[i])
	}
	return out, stats, nil
}

// FilterNonEmpty returns a view keeping only rows whose cell in column is
// non-blank. Used to drop rows without ground truth before sampling.
func FilterNonEmpty(t *Table, column string) *Table {
	if !t.HasColumn(column) {
		return t
	}
	out := NewTable(t.Columns)
	for _, row := range t.Rows {
		if strings.TrimSpace(row[column]) != "" {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}
