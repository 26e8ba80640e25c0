package surface

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// JSONStdoutWriter prints command rows as JSON lines to STDOUT.
type JSONStdoutWriter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

// Write outputs a command row in JSON format.
func (w *JSONStdoutWriter) Write(row CommandRow) error {
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// WriteBatch outputs multiple command rows in JSON format.
func (w *JSONStdoutWriter) WriteBatch(rows []CommandRow) error {
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}
