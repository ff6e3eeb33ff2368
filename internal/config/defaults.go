package config

import (
	"os"
	"time"
)

// Default values for optional configuration fields.
const (
	DefaultInstanceID         = "odds-tracker"
	DefaultBaseURL            = "https://api.the-odds-api.com/v4"
	DefaultSport              = "soccer_uefa_nations_league"
	DefaultRegion             = "eu"
	DefaultOddsFormat         = "decimal"
	DefaultAPITimeout         = 30 * time.Second
	DefaultMaxAttempts        = 3
	DefaultRetryDelay         = 5 * time.Second
	DefaultRetryMultiplier    = 1.0
	DefaultIntervalMinutes    = 1
	DefaultStorePath          = "odds_data.csv"
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 4
	DefaultMinConns           = 1
	DefaultDBWriteTimeout     = 10 * time.Second
	DefaultArchiveCompression = "snappy"
	DefaultArchiveRegion      = "us-east-1"
	DefaultStreamTopic        = "odds.quotes"
	DefaultStreamWriteTimeout = 10 * time.Second
	DefaultMetricsPort        = 9090
	DefaultMetricsPath        = "/metrics"
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "text"
	DefaultLogOutput          = "stdout"
	DefaultLogMaxSizeMB       = 100
	DefaultLogMaxAgeDays      = 7
)

func (c *TrackerConfig) applyDefaults() {
	if c.Instance.ID == "" {
		c.Instance.ID = DefaultInstanceID
	}

	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.APIKey == "" {
		c.API.APIKey = os.Getenv(APIKeyEnv)
	}
	if c.API.Sport == "" {
		c.API.Sport = DefaultSport
	}
	if len(c.API.Regions) == 0 {
		c.API.Regions = []string{DefaultRegion}
	}
	if c.API.OddsFormat == "" {
		c.API.OddsFormat = DefaultOddsFormat
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}

	// Retry defaults
	if c.Retry.MaxAttempts == 0 && !c.Retry.maxAttemptsSet {
		c.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if c.Retry.Delay == 0 && !c.Retry.delaySet {
		c.Retry.Delay = DefaultRetryDelay
	}
	if c.Retry.Multiplier == 0 {
		c.Retry.Multiplier = DefaultRetryMultiplier
	}

	if c.Poller.IntervalMinutes == 0 {
		c.Poller.IntervalMinutes = DefaultIntervalMinutes
	}
	if c.Store.Path == "" {
		c.Store.Path = DefaultStorePath
	}

	// Mirrors
	applyDBDefaults(&c.Database.Timescale)
	if c.Database.WriteTimeout == 0 {
		c.Database.WriteTimeout = DefaultDBWriteTimeout
	}
	if c.Archive.Compression == "" {
		c.Archive.Compression = DefaultArchiveCompression
	}
	if c.Archive.Region == "" {
		c.Archive.Region = DefaultArchiveRegion
	}
	if c.Stream.Topic == "" {
		c.Stream.Topic = DefaultStreamTopic
	}
	if c.Stream.WriteTimeout == 0 {
		c.Stream.WriteTimeout = DefaultStreamWriteTimeout
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.Output == "" {
		c.Logging.Output = DefaultLogOutput
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if c.Logging.MaxAgeDays == 0 {
		c.Logging.MaxAgeDays = DefaultLogMaxAgeDays
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
