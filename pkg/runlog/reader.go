package runlog

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/XiaoConstantine/relicbench/pkg/errors"
	"github.com/XiaoConstantine/relicbench/pkg/logging"
)

// ReadAll parses every well-formed line of a log file, in file order.
// Malformed lines, including a final line truncated by a killed process,
// are silently discarded; they never poison prior lines.
func ReadAll(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.ResourceNotFound, "failed to open log file"),
			errors.Fields{"path": path})
	}
	defer f.Close()

	var records []Record
	dropped := 0

	// Raw responses can embed whole book windows, so lines have no
	// bounded length; ReadString grows as needed where a fixed scanner
	// buffer would turn one huge line into a fatal error.
	reader := bufio.NewReaderSize(f, 64*1024)
	for {
		line, readErr := reader.ReadString('\n')
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			var rec Record
			if err := json.Unmarshal([]byte(trimmed), &rec); err != nil {
				dropped++
			} else {
				records = append(records, rec)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, errors.Wrap(readErr, errors.LogCorrupted, "failed to read log file")
		}
	}

	if dropped > 0 {
		logging.GetLogger().Warn(context.TODO(), "dropped %d malformed log lines from %s", dropped, path)
	}
	return records, nil
}

// View builds the logical last-write-wins mapping over the log: among
// records sharing a key, the one at the greatest file offset is
// authoritative. Records lacking uuid or book_title are skipped. An
// empty modelFilter keeps all models.
func View(path string, modelFilter string) (map[Key]Record, error) {
	records, err := ReadAll(path)
	if err != nil {
		return nil, err
	}
	return BuildView(records, modelFilter), nil
}

// BuildView collapses an ordered record sequence into the logical view.
// Insertion overwrite on duplicate keys gives last-write-wins because the
// slice preserves file order.
func BuildView(records []Record, modelFilter string) map[Key]Record {
	view := make(map[Key]Record)
	for _, rec := range records {
		if rec.UUID == "" || rec.BookTitle == "" {
			continue
		}
		key := rec.Key()
		if modelFilter != "" && key.Model != modelFilter {
			continue
		}
		view[key] = rec
	}
	return view
}
