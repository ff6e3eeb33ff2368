package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// TrackerConfig is the root configuration for the odds tracker.
type TrackerConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	API      APIConfig      `yaml:"api"`
	Retry    RetryConfig    `yaml:"retry"`
	Poller   PollerConfig   `yaml:"poller"`
	Store    StoreConfig    `yaml:"store"`
	Database DatabaseConfig `yaml:"database"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Stream   StreamConfig   `yaml:"stream"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// InstanceConfig identifies this tracker in logs.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// APIConfig holds odds API settings.
type APIConfig struct {
	BaseURL            string        `yaml:"base_url"`
	APIKey             string        `yaml:"api_key"` // Falls back to $ODDS_API_KEY
	Sport              string        `yaml:"sport"`
	Regions            []string      `yaml:"regions"`
	OddsFormat         string        `yaml:"odds_format"`
	Timeout            time.Duration `yaml:"timeout"`
	RateLimitPerSecond float64       `yaml:"rate_limit_per_second"` // 0 disables
}

// RetryConfig configures the fetch retry policy.
//
// An explicit `delay: 0s` means retry without waiting; only an absent key
// takes the default. The same holds for max_attempts, where an explicit 0
// is then rejected by Validate.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Delay       time.Duration `yaml:"delay"`
	Multiplier  float64       `yaml:"multiplier"` // 1 keeps the delay fixed
	MaxDelay    time.Duration `yaml:"max_delay"`

	maxAttemptsSet bool
	delaySet       bool
}

// UnmarshalYAML records which keys were present so applyDefaults can tell
// an explicit zero from an omitted value.
func (r *RetryConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain RetryConfig
	if err := value.Decode((*plain)(r)); err != nil {
		return err
	}
	if value.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		switch value.Content[i].Value {
		case "max_attempts":
			r.maxAttemptsSet = true
		case "delay":
			r.delaySet = true
		}
	}
	return nil
}

// PollerConfig holds cycle scheduling settings.
type PollerConfig struct {
	IntervalMinutes int `yaml:"interval_minutes"`
}

// Interval returns the cycle length.
func (p PollerConfig) Interval() time.Duration {
	return time.Duration(p.IntervalMinutes) * time.Minute
}

// StoreConfig locates the primary CSV store.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// DatabaseConfig holds the optional TimescaleDB mirror.
type DatabaseConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Timescale    DBConfig      `yaml:"timescale"`
	WriteTimeout time.Duration `yaml:"write_timeout"` // Bounds one batch COPY
}

// DBConfig holds connection settings for one database.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// ArchiveConfig holds the optional parquet archive on S3.
type ArchiveConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Bucket      string `yaml:"bucket"`
	Prefix      string `yaml:"prefix"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`    // S3-compatible stores, e.g. MinIO
	Compression string `yaml:"compression"` // snappy, gzip, none
	AccessKeyID string `yaml:"access_key_id"`
	SecretKey   string `yaml:"secret_access_key"`
}

// StreamConfig holds the optional Kafka record stream.
type StreamConfig struct {
	Enabled                bool          `yaml:"enabled"`
	Brokers                []string      `yaml:"brokers"`
	Topic                  string        `yaml:"topic"`
	WriteTimeout           time.Duration `yaml:"write_timeout"`
	AllowAutoTopicCreation bool          `yaml:"allow_auto_topic_creation"`
}

// MetricsConfig holds the health and metrics HTTP server settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// LoggingConfig selects log level, format and destination.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxAgeDays int    `yaml:"max_age_days"`
	MaxBackups int    `yaml:"max_backups"`
	Compress   bool   `yaml:"compress"`
}
