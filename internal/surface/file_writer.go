package surface

import (
	"encoding/json"
	"os"
	"sync"
)

// FileWriter appends command rows to a JSONL file.
type FileWriter struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewFileWriter creates (or truncates) path.
func NewFileWriter(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileWriter{file: f, enc: json.NewEncoder(f)}, nil
}

// Write logs a single command row.
func (f *FileWriter) Write(row CommandRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enc.Encode(row)
}

// WriteBatch logs multiple command rows.
func (f *FileWriter) WriteBatch(rows []CommandRow) error {
	for _, r := range rows {
		if err := f.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying file.
func (f *FileWriter) Close() error {
	if f.file == nil {
		return nil
	}
	return f.file.Close()
}
