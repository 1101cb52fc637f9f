package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sqlbricks/go-mssql/config"
)

func TestNewSettingsDefaults(t *testing.T) {
	settings := NewSettings(nil)

	assert.Equal(t, DefaultSlowQueryThreshold, settings.SlowQueryThreshold())
	assert.Equal(t, DefaultMaxQueryLength, settings.MaxQueryLength())
	assert.False(t, settings.LogQueryParameters())
}

func TestNewSettingsFromConfig(t *testing.T) {
	cfg := &config.DatabaseConfig{}
	cfg.Query.Slow.Threshold = 50 * time.Millisecond
	cfg.Query.Log.MaxLength = 200
	cfg.Query.Log.Parameters = true

	settings := NewSettings(cfg)

	assert.Equal(t, 50*time.Millisecond, settings.SlowQueryThreshold())
	assert.Equal(t, 200, settings.MaxQueryLength())
	assert.True(t, settings.LogQueryParameters())
}

func TestNewSettingsIgnoresNonPositiveValues(t *testing.T) {
	cfg := &config.DatabaseConfig{}
	cfg.Query.Slow.Threshold = -time.Second
	cfg.Query.Log.MaxLength = 0

	settings := NewSettings(cfg)

	assert.Equal(t, DefaultSlowQueryThreshold, settings.SlowQueryThreshold())
	assert.Equal(t, DefaultMaxQueryLength, settings.MaxQueryLength())
}
