package prompts

import (
	"fmt"
	"strings"

	"github.com/XiaoConstantine/relicbench/pkg/dataset"
	"github.com/XiaoConstantine/relicbench/pkg/errors"
)

// Builder renders task prompts from input rows and the book corpus. The
// task/version pair is validated at construction so a bad configuration is
// fatal before any remote call is attempted.
type Builder struct {
	task     int
	version  string
	template string
	books    dataset.Books
}

// NewBuilder validates the task/version pair against the registry and, for
// context-bearing tasks, requires a corpus.
func NewBuilder(task int, version string, books dataset.Books) (*Builder, error) {
	template, err := Template(task, version)
	if err != nil {
		return nil, err
	}
	if NeedsBookContext(task) && books == nil {
		return nil, errors.WithFields(
			errors.New(errors.InvalidInput, fmt.Sprintf("task %d requires the books corpus", task)),
			errors.Fields{"task": task})
	}
	return &Builder{task: task, version: version, template: template, books: books}, nil
}

// Task returns the builder's task number.
func (b *Builder) Task() int { return b.task }

// Version returns the builder's prompt version.
func (b *Builder) Version() string { return b.version }

// Build renders the prompt for one input row. A missing masked excerpt or
// a book absent from the corpus are row-level construction errors; they
// consume no retry budget and no remote quota.
func (b *Builder) Build(row dataset.InputRow) (string, error) {
	if strings.TrimSpace(row.MaskedExcerpt) == "" {
		return "", errors.WithFields(
			errors.New(errors.PromptBuildFailed,
				"missing required field "+dataset.ColMaskedExcerpt+" in input row"),
			errors.Fields{"uuid": row.UUID, "book_title": row.BookTitle})
	}

	bookKey := dataset.NormalizeBookKey(row.BookTitle)

	var bookSentences, numberedSentences string
	switch b.task {
	case 1:
		joined, ok := b.books.JoinedText(row.BookTitle)
		if !ok {
			return "", errors.WithFields(
				errors.New(errors.PromptBuildFailed,
					fmt.Sprintf("book content for %q not found in corpus", row.BookTitle)),
				errors.Fields{"book_key": bookKey})
		}
		bookSentences = joined
	case 3:
		lines, ok := b.books.Lines(row.BookTitle)
		if !ok {
			return "", errors.WithFields(
				errors.New(errors.PromptBuildFailed,
					fmt.Sprintf("book content for %q not found in corpus", row.BookTitle)),
				errors.Fields{"book_key": bookKey})
		}
		numberedSentences = numberLines(lines)
		bookSentences = numberedSentences
	default:
		// Tasks 2 and 4 run on parametric knowledge only.
	}

	replacer := strings.NewReplacer(
		"{book_title}", row.BookTitle,
		"{book_sentences_with_line_numbers}", numberedSentences,
		"{book_sentences}", bookSentences,
		"{lit_analysis_excerpt}", row.MaskedExcerpt,
		"{book_title_snake_case}", bookKey,
	)
	return replacer.Replace(b.template), nil
}

// numberLines renders traditional line numbering: 1-based, one space
// between number and content, no colon.
func numberLines(lines []string) string {
	var sb strings.Builder
	for i, line := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%d %s", i+1, line)
	}
	return sb.String()
}
