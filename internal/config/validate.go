package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *TrackerConfig) Validate() error {
	if c.API.APIKey == "" {
		return fmt.Errorf("api.api_key is required (or set %s)", APIKeyEnv)
	}
	if c.API.Sport == "" {
		return errors.New("api.sport is required")
	}
	if c.API.RateLimitPerSecond < 0 {
		return errors.New("api.rate_limit_per_second must be >= 0")
	}
	switch c.API.OddsFormat {
	case "decimal", "american":
	default:
		return fmt.Errorf("api.odds_format must be decimal or american, got %q", c.API.OddsFormat)
	}

	if c.Retry.MaxAttempts < 1 {
		return errors.New("retry.max_attempts must be >= 1")
	}
	if c.Retry.Delay < 0 {
		return errors.New("retry.delay must be >= 0")
	}
	if c.Retry.Multiplier < 1 {
		return errors.New("retry.multiplier must be >= 1")
	}

	if c.Poller.IntervalMinutes < 1 {
		return errors.New("poller.interval_minutes must be >= 1")
	}
	if c.Store.Path == "" {
		return errors.New("store.path is required")
	}

	if c.Database.Enabled {
		if err := c.Database.Timescale.validate("database.timescale"); err != nil {
			return err
		}
		if c.Database.WriteTimeout <= 0 {
			return errors.New("database.write_timeout must be > 0")
		}
	}
	if c.Archive.Enabled {
		if c.Archive.Bucket == "" {
			return errors.New("archive.bucket is required")
		}
		switch c.Archive.Compression {
		case "snappy", "gzip", "none":
		default:
			return fmt.Errorf("archive.compression must be snappy, gzip or none, got %q", c.Archive.Compression)
		}
	}
	if c.Stream.Enabled {
		if len(c.Stream.Brokers) == 0 {
			return errors.New("stream.brokers is required")
		}
		if c.Stream.Topic == "" {
			return errors.New("stream.topic is required")
		}
	}

	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
