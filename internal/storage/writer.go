package storage

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"

	"github.com/hdevoe/reddit-del/internal/domain"
)

// WriterService appends collected records to an NDJSON file, draining a
// channel so collection never blocks on disk.
type WriterService struct {
	FilePath string
}

func (w *WriterService) Start(wg *sync.WaitGroup, input <-chan domain.Record) {
	defer wg.Done()

	f, err := os.OpenFile(w.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		slog.Error("open data file", "path", w.FilePath, "err", err)
		for range input {
		} // drain so senders don't block
		return
	}
	defer f.Close()

	enc := json.NewEncoder(f)

	for rec := range input {
		// Write as NDJSON
		if err := enc.Encode(rec); err != nil {
			slog.Error("write record", "id", rec.ID, "err", err)
		}
	}
}
