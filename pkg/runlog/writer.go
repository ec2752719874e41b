package runlog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/XiaoConstantine/relicbench/pkg/errors"
)

// Writer appends records to a log file. The file is opened append-only
// and is never rewritten or truncated; repeated runs against the same
// path accumulate monotonically. One Writer per file, one process per
// file; concurrent writer processes are not supported.
type Writer struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

// OpenWriter opens (creating if needed) the log file for appending,
// creating parent directories as needed.
func OpenWriter(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, errors.Unknown, "failed to create log directory")
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.Unknown, "failed to open log file"),
			errors.Fields{"path": path})
	}
	return &Writer{f: f, path: path}, nil
}

// Append writes one record as a single JSON line. Safe for concurrent
// use by in-flight workers; each record lands as one contiguous line.
func (w *Writer) Append(rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, errors.Unknown, "failed to marshal log record")
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.f.Write(data); err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.Unknown, "failed to append log record"),
			errors.Fields{"path": w.path})
	}
	return nil
}

// Sync flushes appended records to durable storage. The executor calls
// this at every batch boundary so a crash loses at most one batch.
func (w *Writer) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Sync()
}

// Close syncs and closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.f.Sync(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
