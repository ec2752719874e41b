package dataset

import (
	"strconv"
	"strings"

	"github.com/XiaoConstantine/relicbench/pkg/errors"
)

// InputRow is one unit of benchmark work, typed out of a Table row.
type InputRow struct {
	Index     int // position in the source table
	UUID      string
	BookTitle string
	Commenter string

	// Ground truth
	AnswerQuoteText string
	AnswerQuoteIdx  *int // nullable line number

	// Subset flags
	HumanEvalSet        bool
	CloseReadingExample bool

	// MaskedExcerpt is the literary-analysis excerpt with the cited
	// quotation replaced by <MASK>; prompts are built from it.
	MaskedExcerpt string
}

// InputRows converts a table to typed rows. uuid and book_title are
// required; everything else is task-dependent and may be absent.
func InputRows(t *Table) ([]InputRow, error) {
	if !t.HasJoinKeys() {
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, "input table must contain uuid and book_title columns"),
			errors.Fields{"columns": strings.Join(t.Columns, ",")})
	}

	rows := make([]InputRow, 0, len(t.Rows))
	for i, row := range t.Rows {
		r := InputRow{
			Index:               i,
			UUID:                row[ColUUID],
			BookTitle:           row[ColBookTitle],
			Commenter:           row[ColCommenter],
			AnswerQuoteText:     row[ColAnswerQuote],
			HumanEvalSet:        ParseBool(row[ColHumanEvalSet]),
			CloseReadingExample: ParseBool(row[ColCloseReading]),
			MaskedExcerpt:       row[ColMaskedExcerpt],
		}
		if idx, ok := ParseLineIdx(row[ColAnswerIdx]); ok {
			r.AnswerQuoteIdx = &idx
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// ParseLineIdx reads a nullable integer cell. Pandas-written CSVs store
// integer columns holding nulls as floats ("103.0"), so both forms parse.
func ParseLineIdx(cell string) (int, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f), true
	}
	return 0, false
}
