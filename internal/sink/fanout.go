package sink

import (
	"context"
	"log/slog"

	"github.com/rickgao/odds-data/internal/model"
)

// Fanout writes to a primary sink and then to any mirrors.
//
// Only the primary decides the outcome. If it fails the mirrors are
// skipped; mirror failures are logged and counted but never returned.
type Fanout struct {
	primary  Sink
	mirrors  []Sink
	logger   *slog.Logger
	recorder Recorder
}

// NewFanout creates a Fanout. recorder may be nil.
func NewFanout(primary Sink, mirrors []Sink, recorder Recorder, logger *slog.Logger) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Fanout{
		primary:  primary,
		mirrors:  mirrors,
		logger:   logger,
		recorder: recorder,
	}
}

// Name implements Sink.
func (f *Fanout) Name() string { return f.primary.Name() }

// Append implements Sink.
func (f *Fanout) Append(ctx context.Context, records []model.QuoteRecord) error {
	if len(records) == 0 {
		return nil
	}

	if err := f.primary.Append(ctx, records); err != nil {
		f.recorder.RecordSinkError(f.primary.Name())
		return err
	}
	f.recorder.RecordAppended(f.primary.Name(), len(records))

	for _, m := range f.mirrors {
		if err := m.Append(ctx, records); err != nil {
			f.recorder.RecordSinkError(m.Name())
			f.logger.Warn("mirror append failed",
				"sink", m.Name(),
				"records", len(records),
				"error", err,
			)
			continue
		}
		f.recorder.RecordAppended(m.Name(), len(records))
	}
	return nil
}
