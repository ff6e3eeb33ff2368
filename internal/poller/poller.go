package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/odds-data/internal/api"
	"github.com/rickgao/odds-data/internal/extract"
	"github.com/rickgao/odds-data/internal/metrics"
	"github.com/rickgao/odds-data/internal/model"
	"github.com/rickgao/odds-data/internal/retry"
	"github.com/rickgao/odds-data/internal/sink"
)

// Source returns the current event list. *api.Fetcher implements it.
type Source interface {
	Fetch(ctx context.Context) (*api.OddsResponse, error)
}

// Config holds poller configuration.
type Config struct {
	Interval time.Duration // Cycle length, a whole number of minutes (default: 1m)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: time.Minute,
	}
}

// CycleResult summarizes one cycle.
type CycleResult struct {
	ID        string
	Outcome   string // One of the metrics.Outcome* values
	Events    int
	Malformed int
	Records   int
	Duration  time.Duration
}

// Status is the state reported by the health endpoint.
type Status struct {
	Cycles      int64
	LastCycle   time.Time
	LastOutcome string
	LastSuccess time.Time
	LastRecords int
}

// Poller runs the fetch, extract, persist, wait loop.
type Poller struct {
	cfg     Config
	source  Source
	sink    sink.Sink
	metrics *metrics.Metrics
	logger  *slog.Logger

	now   func() time.Time
	sleep func(context.Context, time.Duration) error

	mu     sync.RWMutex
	status Status

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller. m may be nil.
func New(cfg Config, source Source, s sink.Sink, m *metrics.Metrics, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Poller{
		cfg:     cfg,
		source:  source,
		sink:    s,
		metrics: m,
		logger:  logger,
		now:     time.Now,
		sleep:   retry.Sleep,
	}
}

// Start runs the loop in the background until Stop or ctx cancellation.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.Run(p.ctx)
	}()

	return nil
}

// Stop cancels the loop and waits for the current cycle to finish.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("odds poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes cycles until ctx is done. The first cycle starts
// immediately; later cycles start on interval boundaries.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("odds poller started", "interval", p.cfg.Interval)

	for {
		p.RunCycle(ctx)
		if ctx.Err() != nil {
			return
		}

		now := p.now()
		wait := TimeUntilNextBoundary(now, p.cfg.Interval)
		p.logger.Debug("waiting for next cycle",
			"wait", wait,
			"next", NextBoundary(now, p.cfg.Interval),
		)
		if err := p.sleep(ctx, wait); err != nil {
			return
		}
	}
}

// RunCycle performs one fetch, extract and persist pass. Failures are
// logged and reported through the result and error; they never panic.
//
// The returned error wraps api.ErrUnavailable when no data arrived, is a
// *sink.PersistenceError when the primary store rejected the batch, or is
// ctx.Err() when the cycle was cancelled during the fetch.
func (p *Poller) RunCycle(ctx context.Context) (CycleResult, error) {
	start := p.now()
	res := CycleResult{ID: uuid.NewString()}
	log := p.logger.With("cycle", res.ID)

	resp, err := p.source.Fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return p.finish(res, start, metrics.OutcomeCanceled), ctx.Err()
		}
		log.Warn("no data this cycle", "error", err)
		return p.finish(res, start, metrics.OutcomeUnavailable), err
	}
	if resp.Quota.Known {
		p.metrics.SetRequestsRemaining(resp.Quota.Remaining)
	}

	res.Events = len(resp.Events)
	p.metrics.AddEvents(res.Events)

	var (
		batch []model.QuoteRecord
		saved []savedEvent
	)
	for _, raw := range resp.Events {
		// One capture time per event, shared by all of its records.
		ev, records, err := extract.Event(raw, p.now())
		if err != nil {
			res.Malformed++
			p.metrics.IncMalformed()
			p.logMalformed(log, err)
			continue
		}
		batch = append(batch, records...)
		saved = append(saved, savedEvent{home: ev.HomeTeam, away: ev.AwayTeam, records: len(records)})
	}

	// The append is not cancelled by shutdown.
	if err := p.sink.Append(context.WithoutCancel(ctx), batch); err != nil {
		log.Error("persist failed",
			"sink", p.sink.Name(),
			"records", len(batch),
			"error", err,
		)
		return p.finish(res, start, metrics.OutcomePersistFail), err
	}
	res.Records = len(batch)

	for _, s := range saved {
		log.Info("odds saved", "home", s.home, "away", s.away, "records", s.records)
	}
	log.Info("cycle complete",
		"events", res.Events,
		"malformed", res.Malformed,
		"records", res.Records,
		"duration", p.now().Sub(start),
	)
	return p.finish(res, start, metrics.OutcomeSuccess), nil
}

// Status returns a snapshot of the last cycle.
func (p *Poller) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

type savedEvent struct {
	home, away string
	records    int
}

func (p *Poller) finish(res CycleResult, start time.Time, outcome string) CycleResult {
	end := p.now()
	res.Outcome = outcome
	res.Duration = end.Sub(start)
	p.metrics.RecordCycle(outcome, res.Duration)

	p.mu.Lock()
	p.status.Cycles++
	p.status.LastCycle = end
	p.status.LastOutcome = outcome
	if outcome == metrics.OutcomeSuccess {
		p.status.LastSuccess = end
		p.status.LastRecords = res.Records
	}
	p.mu.Unlock()

	return res
}

func (p *Poller) logMalformed(log *slog.Logger, err error) {
	var mpe *extract.MalformedPayloadError
	if errors.As(err, &mpe) {
		log.Warn("skipping malformed event",
			"event", mpe.EventID,
			"field", mpe.Field,
			"reason", mpe.Reason,
		)
		return
	}
	log.Warn("skipping malformed event", "error", err)
}
