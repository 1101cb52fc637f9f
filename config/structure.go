package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Config is the root configuration for the library's connection and
// tracking layers.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`

	// k holds the underlying Koanf instance for flexible access to custom keys
	k *koanf.Koanf `json:"-" yaml:"-" toml:"-" mapstructure:"-"`
}

// DatabaseConfig describes one SQL Server connection.
type DatabaseConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=0,lte=65535"`
	Database        string        `koanf:"database"`
	Username        string        `koanf:"username"`
	Password        string        `koanf:"password"`
	Instance        string        `koanf:"instance"`
	MaxConns        int32         `koanf:"max_conns" validate:"gte=0"`
	MaxIdleConns    int32         `koanf:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`

	// Connection string override; when set it wins over the discrete fields.
	ConnectionString string `koanf:"connection_string"`

	Query QueryConfig `koanf:"query"`
}

// QueryConfig controls operation tracking behaviour.
type QueryConfig struct {
	Slow SlowQueryConfig `koanf:"slow"`
	Log  QueryLogConfig  `koanf:"log"`
}

// SlowQueryConfig sets the elapsed-time threshold past which an operation is
// logged as slow.
type SlowQueryConfig struct {
	Threshold time.Duration `koanf:"threshold"`
}

// QueryLogConfig controls how statements appear in logs.
type QueryLogConfig struct {
	// MaxLength truncates logged statement text.
	MaxLength int `koanf:"max_length" validate:"gte=0"`
	// Parameters includes bound parameter values in logs when true.
	Parameters bool `koanf:"parameters"`
}

// LogConfig configures the zerolog output.
type LogConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	Pretty bool   `koanf:"pretty"`
}

// Koanf exposes the loaded key tree for access to custom keys outside the
// typed structure.
func (c *Config) Koanf() *koanf.Koanf {
	return c.k
}
