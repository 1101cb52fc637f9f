package logger

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogger(level string) (*ZeroLogger, *strings.Builder) {
	var buf strings.Builder
	zLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		zLevel = zerolog.InfoLevel
	}
	zl := zerolog.New(&buf).Level(zLevel)
	return FromZerolog(zl), &buf
}

func TestNewDefaultsToInfoOnBadLevel(t *testing.T) {
	log := New("not-a-level", false)
	require.NotNil(t, log)
	assert.Equal(t, zerolog.InfoLevel, log.zlog.GetLevel())
}

func TestLoggerEmitsStructuredFields(t *testing.T) {
	log, buf := captureLogger("debug")

	log.Info().
		Str("vendor", "sqlserver").
		Int("rows", 3).
		Dur("elapsed", 15*time.Millisecond).
		Msg("query completed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(buf.String()), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "sqlserver", entry["vendor"])
	assert.Equal(t, float64(3), entry["rows"])
	assert.Equal(t, "query completed", entry["message"])
}

func TestLoggerAttachesError(t *testing.T) {
	log, buf := captureLogger("debug")

	log.Error().Err(errors.New("boom")).Msg("operation failed")

	assert.Contains(t, buf.String(), `"error":"boom"`)
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestLevelFilteringSuppressesDebug(t *testing.T) {
	log, buf := captureLogger("warn")

	log.Debug().Msg("hidden")
	log.Warn().Msg("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}

func TestWithFields(t *testing.T) {
	log, buf := captureLogger("info")

	log.WithFields(map[string]any{"component": "builder"}).Info().Msg("ready")

	assert.Contains(t, buf.String(), `"component":"builder"`)
}

func TestWithContextFallsBackWithoutLogger(t *testing.T) {
	log, _ := captureLogger("info")

	assert.Same(t, Logger(log), log.WithContext(t.Context()))
	assert.Same(t, Logger(log), log.WithContext("not a context"))
}
