package dataset

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/XiaoConstantine/relicbench/pkg/errors"
)

// Books maps a normalized book key to the ordered lines of that book's
// full text. Keys are lowercased with spaces replaced by underscores, as
// produced by the corpus conversion tooling.
type Books map[string][]string

// NormalizeBookKey converts a display title ("The Aeneid") into the corpus
// key form ("the_aeneid").
func NormalizeBookKey(title string) string {
	return strings.ToLower(strings.ReplaceAll(title, " ", "_"))
}

// LoadBooks reads the reference-text corpus from a JSON object file.
func LoadBooks(path string) (Books, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.ResourceNotFound, "failed to read books JSON"),
			errors.Fields{"path": path})
	}

	var books Books
	if err := json.Unmarshal(data, &books); err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.InvalidInput, "failed to parse books JSON"),
			errors.Fields{"path": path})
	}
	return books, nil
}

// Lines returns the ordered lines for a book, looked up by display title.
func (b Books) Lines(title string) ([]string, bool) {
	lines, ok := b[NormalizeBookKey(title)]
	return lines, ok
}

// JoinedText returns the book's full text as one space-joined string, the
// form the validity check scores responses against.
func (b Books) JoinedText(title string) (string, bool) {
	lines, ok := b.Lines(title)
	if !ok {
		return "", false
	}
	return strings.Join(lines, " "), true
}
