// Package tracking wraps database connections with per-operation
// observability: structured logs, slow query detection, OpenTelemetry spans
// and metrics.
package tracking

import (
	"time"

	"github.com/sqlbricks/go-mssql/config"
	"github.com/sqlbricks/go-mssql/logger"
)

const (
	// DefaultSlowQueryThreshold defines the default threshold for slow query detection
	DefaultSlowQueryThreshold = 200 * time.Millisecond
	// DefaultMaxQueryLength defines the default maximum query length for logging
	DefaultMaxQueryLength = 1000
)

// Settings holds configuration for database query tracking and logging.
type Settings struct {
	slowQueryThreshold time.Duration
	maxQueryLength     int
	logQueryParameters bool
}

// Context groups tracking-related parameters passed to tracking functions:
// the logger, the vendor identifier for metric attribution, and the
// per-connection settings.
type Context struct {
	Logger   logger.Logger
	Vendor   string
	Settings Settings

	// Server connection metadata for OTel attributes
	ServerAddress string
	ServerPort    int
	Namespace     string
}

// NewSettings creates Settings populated from the provided database
// configuration. If cfg is nil or a numeric field is non-positive, the
// package defaults are used.
func NewSettings(cfg *config.DatabaseConfig) Settings {
	settings := Settings{
		slowQueryThreshold: DefaultSlowQueryThreshold,
		maxQueryLength:     DefaultMaxQueryLength,
		logQueryParameters: false,
	}

	if cfg == nil {
		return settings
	}

	if cfg.Query.Slow.Threshold > 0 {
		settings.slowQueryThreshold = cfg.Query.Slow.Threshold
	}
	if cfg.Query.Log.MaxLength > 0 {
		settings.maxQueryLength = cfg.Query.Log.MaxLength
	}
	settings.logQueryParameters = cfg.Query.Log.Parameters

	return settings
}

// SlowQueryThreshold returns the threshold for slow query detection
func (s Settings) SlowQueryThreshold() time.Duration {
	return s.slowQueryThreshold
}

// MaxQueryLength returns the maximum query length for logging
func (s Settings) MaxQueryLength() int {
	return s.maxQueryLength
}

// LogQueryParameters returns whether query parameters should be logged
func (s Settings) LogQueryParameters() bool {
	return s.logQueryParameters
}
