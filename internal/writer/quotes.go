package writer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rickgao/odds-data/internal/model"
)

// DefaultQuotesTable is the hypertable quote records are copied into.
const DefaultQuotesTable = "odds_quotes"

// DefaultWriteTimeout bounds one COPY of a batch.
const DefaultWriteTimeout = 10 * time.Second

var quoteColumns = []string{
	"event_id", "home_team", "away_team", "captured_at", "bookmaker", "participant", "price",
}

// DB is the subset of *pgxpool.Pool the writer needs.
type DB interface {
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// QuoteWriter mirrors appended quote batches into TimescaleDB.
type QuoteWriter struct {
	db           DB
	table        string
	writeTimeout time.Duration
	logger       *slog.Logger
}

// Option configures a QuoteWriter.
type Option func(*QuoteWriter)

// WithWriteTimeout sets how long one Append may take. Non-positive values
// keep DefaultWriteTimeout.
func WithWriteTimeout(d time.Duration) Option {
	return func(w *QuoteWriter) {
		if d > 0 {
			w.writeTimeout = d
		}
	}
}

// NewQuoteWriter creates a QuoteWriter. An empty table uses DefaultQuotesTable.
func NewQuoteWriter(db DB, table string, logger *slog.Logger, opts ...Option) *QuoteWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if table == "" {
		table = DefaultQuotesTable
	}
	w := &QuoteWriter{
		db:           db,
		table:        table,
		writeTimeout: DefaultWriteTimeout,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name implements sink.Sink.
func (w *QuoteWriter) Name() string { return "timescale" }

// EnsureSchema creates the quotes table and, when the timescaledb extension
// is installed, turns it into a hypertable on captured_at.
func (w *QuoteWriter) EnsureSchema(ctx context.Context) error {
	table := pgx.Identifier{w.table}.Sanitize()

	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			event_id    TEXT             NOT NULL,
			home_team   TEXT             NOT NULL,
			away_team   TEXT             NOT NULL,
			captured_at TIMESTAMPTZ      NOT NULL,
			bookmaker   TEXT             NOT NULL,
			participant TEXT             NOT NULL,
			price       DOUBLE PRECISION NOT NULL
		)`, table)
	if _, err := w.db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create %s: %w", w.table, err)
	}

	// Plain PostgreSQL works too, just without chunking.
	if _, err := w.db.Exec(ctx,
		`SELECT create_hypertable($1::regclass, 'captured_at', if_not_exists => TRUE)`, w.table,
	); err != nil {
		w.logger.Warn("hypertable not created", "table", w.table, "error", err)
	}
	return nil
}

// Append copies records into the table in one COPY round trip. The copy
// is abandoned after the write timeout even if ctx has no deadline, so a
// stalled connection cannot hold up the poll loop.
func (w *QuoteWriter) Append(ctx context.Context, records []model.QuoteRecord) error {
	if len(records) == 0 {
		return nil
	}
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, w.writeTimeout)
	defer cancel()

	src := pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
		return transform(records[i]), nil
	})
	n, err := w.db.CopyFrom(ctx, pgx.Identifier{w.table}, quoteColumns, src)
	if err != nil {
		return fmt.Errorf("copy quotes: %w", err)
	}
	if n != int64(len(records)) {
		return fmt.Errorf("copy quotes: copied %d of %d rows", n, len(records))
	}

	w.logger.Debug("copied quotes",
		"count", n,
		"duration", time.Since(start),
	)
	return nil
}

// transform converts a record to COPY values in quoteColumns order.
func transform(r model.QuoteRecord) []any {
	return []any{
		r.EventID,
		r.HomeTeam,
		r.AwayTeam,
		r.CapturedAt.UTC(),
		r.Bookmaker,
		r.Participant,
		r.Price,
	}
}
