package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/odds-data/internal/api"
	"github.com/rickgao/odds-data/internal/archive"
	"github.com/rickgao/odds-data/internal/config"
	"github.com/rickgao/odds-data/internal/database"
	"github.com/rickgao/odds-data/internal/logging"
	"github.com/rickgao/odds-data/internal/metrics"
	"github.com/rickgao/odds-data/internal/model"
	"github.com/rickgao/odds-data/internal/poller"
	"github.com/rickgao/odds-data/internal/retry"
	"github.com/rickgao/odds-data/internal/sink"
	"github.com/rickgao/odds-data/internal/stream"
	"github.com/rickgao/odds-data/internal/version"
	"github.com/rickgao/odds-data/internal/writer"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults and environment only when empty)")
	flag.Parse()

	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, logCloser, err := logging.New(logging.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		MaxBackups: cfg.Logging.MaxBackups,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		slog.Error("failed to set up logging", "error", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	logger = logger.With("instance_id", cfg.Instance.ID)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("tracker failed", "error", err)
		logCloser.Close()
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.TrackerConfig, error) {
	if path == "" {
		cfg := config.Default()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("validate config: %w", err)
		}
		return cfg, nil
	}
	return config.LoadAndValidate(path)
}

func run(cfg *config.TrackerConfig, logger *slog.Logger) error {
	logger.Info("starting tracker",
		"version", version.Version,
		"commit", version.Commit,
		"sport", cfg.API.Sport,
		"regions", cfg.API.Regions,
		"interval", cfg.Poller.Interval(),
		"store", cfg.Store.Path,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	m := metrics.New()

	store, err := sink.NewCSV(cfg.Store.Path, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	mirrors, closeMirrors, err := buildMirrors(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeMirrors()

	fanout := sink.NewFanout(store, mirrors, m, logger)

	client := api.NewClient(
		cfg.API.BaseURL,
		cfg.API.APIKey,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetryPolicy(retry.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Delay:       cfg.Retry.Delay,
			Multiplier:  cfg.Retry.Multiplier,
			MaxDelay:    cfg.Retry.MaxDelay,
		}),
		api.WithRateLimit(cfg.API.RateLimitPerSecond),
		api.WithUserAgent(version.UserAgent()),
		api.WithAttemptObserver(m.RecordFetchAttempt),
	)
	fetcher := api.NewFetcher(client, api.OddsRequest{
		Sport:      cfg.API.Sport,
		Regions:    cfg.API.Regions,
		Markets:    []string{model.MarketHeadToHead},
		OddsFormat: cfg.API.OddsFormat,
	}, logger)

	checkSport(ctx, client, cfg.API.Sport, logger)

	p := poller.New(poller.Config{Interval: cfg.Poller.Interval()}, fetcher, fanout, m, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p.Run(gctx)
		return nil
	})

	if cfg.Metrics.Enabled {
		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler:           newHealthHandler(p, store.Path(), cfg.Poller.Interval(), m.Handler(), cfg.Metrics.Path),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("starting health server", "port", cfg.Metrics.Port)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("health server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	logger.Info("tracker stopped", "cycles", p.Status().Cycles)
	return err
}

// buildMirrors connects the optional mirrors. Connection failures at
// startup are fatal; later append failures are not.
func buildMirrors(ctx context.Context, cfg *config.TrackerConfig, logger *slog.Logger) ([]sink.Sink, func(), error) {
	var (
		mirrors []sink.Sink
		closers []io.Closer
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i].Close()
		}
	}

	if cfg.Database.Enabled {
		logger.Info("connecting to database",
			"host", cfg.Database.Timescale.Host,
			"port", cfg.Database.Timescale.Port,
			"database", cfg.Database.Timescale.Name,
		)
		pool, err := database.Connect(ctx, cfg.Database.Timescale)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("connect timescale: %w", err)
		}
		closers = append(closers, closerFunc(func() error { pool.Close(); return nil }))

		qw := writer.NewQuoteWriter(pool, "", logger, writer.WithWriteTimeout(cfg.Database.WriteTimeout))
		if err := qw.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, nil, err
		}
		mirrors = append(mirrors, qw)
	}

	if cfg.Archive.Enabled {
		client, err := archive.NewS3Client(ctx, cfg.Archive)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		mirrors = append(mirrors, archive.New(client, cfg.Archive, cfg.API.Sport, logger))
	}

	if cfg.Stream.Enabled {
		pub := stream.NewPublisher(stream.NewWriter(cfg.Stream), cfg.Stream.Topic, logger)
		closers = append(closers, pub)
		mirrors = append(mirrors, pub)
	}

	for _, s := range mirrors {
		logger.Info("mirror enabled", "sink", s.Name())
	}
	return mirrors, closeAll, nil
}

// checkSport warns when the configured sport is unknown or out of season.
// Polling starts either way; the odds endpoint reports the same outcome.
func checkSport(ctx context.Context, client *api.Client, key string, logger *slog.Logger) {
	sports, err := client.GetSports(ctx, true)
	if err != nil {
		logger.Warn("could not list sports", "error", err)
		return
	}
	s, ok := api.FindSport(sports, key)
	switch {
	case !ok:
		logger.Warn("sport not offered by the odds api", "sport", key)
	case !s.Active:
		logger.Warn("sport is out of season", "sport", key, "title", s.Title)
	default:
		logger.Info("sport found", "sport", key, "title", s.Title, "group", s.Group)
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
