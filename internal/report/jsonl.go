package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	sig "edgelab-go/internal/signal"
)

// JSONLRecorder appends trade results as JSON lines for later analysis.
type JSONLRecorder struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewJSONLRecorder creates/opens the target file and returns a recorder.
func NewJSONLRecorder(path string) (*JSONLRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLRecorder{
		file: file,
		enc:  json.NewEncoder(file),
	}, nil
}

// Record writes a single trade result to the underlying JSONL file.
func (r *JSONLRecorder) Record(tr sig.TradeResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.enc.Encode(tr)
}

// RecordAll writes every trade of a result in order.
func (r *JSONLRecorder) RecordAll(trades []sig.TradeResult) {
	for _, tr := range trades {
		r.Record(tr)
	}
}

// Close flushes and closes the file handle.
func (r *JSONLRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
