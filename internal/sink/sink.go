package sink

import (
	"context"
	"fmt"

	"github.com/rickgao/odds-data/internal/model"
)

// Sink appends a batch of records to some durable destination.
type Sink interface {
	Append(ctx context.Context, records []model.QuoteRecord) error
	Name() string
}

// PersistenceError reports a failed append.
type PersistenceError struct {
	Sink    string
	Op      string // open, stat, encode, write, sync, close
	Records int
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %d records to %s: %s: %v", e.Records, e.Sink, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Recorder receives per-sink outcomes. metrics.Metrics implements it.
type Recorder interface {
	RecordAppended(sink string, n int)
	RecordSinkError(sink string)
}

type nopRecorder struct{}

func (nopRecorder) RecordAppended(string, int) {}
func (nopRecorder) RecordSinkError(string)     {}
