package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// reopeningWriter appends to a log file and reopens it when the path no
// longer refers to the open file, as after logrotate moves it away.
type reopeningWriter struct {
	mu   sync.Mutex
	path string
	file *os.File
}

func newReopeningWriter(path string) *reopeningWriter {
	return &reopeningWriter{path: path}
}

// Write implements the io.Writer interface.
func (w *reopeningWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	writer, err := w.getWriter()
	if err != nil {
		// Log to stderr as a last resort
		fmt.Fprintf(os.Stderr, "sensorsession-log: %v\n", err)
		return 0, err
	}

	return writer.Write(p)
}

// Close implements the io.Closer interface.
func (w *reopeningWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file != nil {
		err := w.file.Close()
		w.file = nil
		return err
	}
	return nil
}

func (w *reopeningWriter) getWriter() (io.Writer, error) {
	if w.file != nil {
		onDisk, statErr := os.Stat(w.path)
		open, fstatErr := w.file.Stat()
		if statErr != nil || fstatErr != nil || !os.SameFile(onDisk, open) {
			w.file.Close()
			w.file = nil
		}
	}

	if w.file == nil {
		if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		file, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		w.file = file
	}

	return w.file, nil
}
