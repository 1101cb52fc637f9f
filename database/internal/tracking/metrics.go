package tracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// Meter name for database metrics instrumentation
	dbMeterName = "go-mssql/database"

	// Metric names following OpenTelemetry semantic conventions
	metricDBCalls    = "db.client.calls"
	metricDBDuration = "db.client.operation.duration"

	// Connection pool metrics
	metricPoolActive = "db.connection.pool.active"
	metricPoolIdle   = "db.connection.pool.idle"
	metricPoolTotal  = "db.connection.pool.total"

	metricDbSQLTable  = "db.sql.table"
	metricDbOperation = "db.operation.name"
	metricDbSystem    = "db.system"

	// I/O metrics
	metricRowsAffected = "db.rows.affected"
)

var (
	dbMeter     metric.Meter
	meterOnce   sync.Once
	meterInitMu sync.Mutex

	dbCallsCounter        metric.Int64Counter
	dbDurationHistogram   metric.Float64Histogram
	dbRowsAffectedCounter metric.Int64Counter
)

// logMetricError logs a metric initialization or registration error to
// stderr. Metrics are best effort and must never break the caller.
func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize metric %s: %v\n", metricName, err)
	}
}

func noOpCleanup() func() {
	return func() {}
}

// asInt64 converts the numeric types driver Stats() maps may carry to int64.
// Returns (0, false) for non-numeric values and uint64 overflow.
func asInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int8:
		return int64(val), true
	case int16:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	case uint:
		if uint64(val) <= uint64(math.MaxInt64) {
			return int64(val), true
		}
		return 0, false
	case uint8:
		return int64(val), true
	case uint16:
		return int64(val), true
	case uint32:
		return int64(val), true
	case uint64:
		if val <= uint64(math.MaxInt64) {
			return int64(val), true
		}
		return 0, false
	case float32:
		return int64(val), true
	case float64:
		return int64(val), true
	default:
		return 0, false
	}
}

func initDBMeter() {
	meterInitMu.Lock()
	defer meterInitMu.Unlock()

	if dbMeter != nil {
		return
	}

	dbMeter = otel.Meter(dbMeterName)

	var err error
	dbCallsCounter, err = dbMeter.Int64Counter(
		metricDBCalls,
		metric.WithDescription("Total number of database client calls"),
	)
	logMetricError(metricDBCalls, err)

	dbDurationHistogram, err = dbMeter.Float64Histogram(
		metricDBDuration,
		metric.WithDescription("Duration of database operations in milliseconds"),
		metric.WithUnit("ms"),
	)
	logMetricError(metricDBDuration, err)

	dbRowsAffectedCounter, err = dbMeter.Int64Counter(
		metricRowsAffected,
		metric.WithDescription("Number of rows affected by database operations"),
	)
	logMetricError(metricRowsAffected, err)
}

func getDBMeter() metric.Meter {
	meterOnce.Do(initDBMeter)
	return dbMeter
}

// recordDBMetrics emits the per-operation metrics: a call counter with an
// error attribute, a duration histogram in milliseconds, and a rows-affected
// counter for successful writes.
func recordDBMetrics(ctx context.Context, tc *Context, query string, duration time.Duration, rowsAffected int64, err error) {
	meter := getDBMeter()
	if meter == nil {
		return
	}

	operation := extractDBOperation(query)
	table := extractTableName(query)

	isError := err != nil && !errors.Is(err, sql.ErrNoRows)

	commonAttrs := []attribute.KeyValue{
		attribute.String(metricDbSystem, dbSystemMSSQL),
		attribute.String(metricDbOperation, operation),
		attribute.String(metricDbSQLTable, table),
	}

	if dbCallsCounter != nil {
		counterAttrs := make([]attribute.KeyValue, 0, len(commonAttrs)+1)
		counterAttrs = append(counterAttrs, commonAttrs...)
		counterAttrs = append(counterAttrs, attribute.Bool("error", isError))
		dbCallsCounter.Add(ctx, 1, metric.WithAttributes(counterAttrs...))
	}

	if dbDurationHistogram != nil {
		durationMs := float64(duration.Nanoseconds()) / 1e6
		dbDurationHistogram.Record(ctx, durationMs, metric.WithAttributes(commonAttrs...))
	}

	if dbRowsAffectedCounter != nil && rowsAffected > 0 && !isError {
		dbRowsAffectedCounter.Add(ctx, rowsAffected, metric.WithAttributes(commonAttrs...))
	}
}

// Patterns extracting the primary table from T-SQL statements. Identifiers
// may be bare or bracket-quoted, optionally schema-qualified; the returning
// insert batch is matched through its SET NOCOUNT ON prelude.
var (
	selectTableRegex = regexp.MustCompile(`(?i)FROM\s+(?:\[?(\w+)\]?\.)?\[?(\w+)\]?`)
	insertTableRegex = regexp.MustCompile(`(?i)INSERT\s+INTO\s+(?:\[?(\w+)\]?\.)?\[?(\w+)\]?`)
	updateTableRegex = regexp.MustCompile(`(?i)UPDATE\s+(?:\[?(\w+)\]?\.)?\[?(\w+)\]?`)
	deleteTableRegex = regexp.MustCompile(`(?i)DELETE\s+FROM\s+(?:\[?(\w+)\]?\.)?\[?(\w+)\]?`)
	mergeTableRegex  = regexp.MustCompile(`(?i)MERGE\s+(?:\[?(\w+)\]?\.)?\[?(\w+)\]?`)
)

func tryExtractTable(pattern *regexp.Regexp, query string) string {
	if matches := pattern.FindStringSubmatch(query); len(matches) > 2 && matches[2] != "" {
		return strings.ToLower(matches[2])
	}
	return ""
}

// extractTableName extracts the primary table name from a statement using
// lightweight pattern matching, not a full parser. Multi-table statements
// report the first table; unclassifiable statements report "unknown".
func extractTableName(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return "unknown"
	}

	queryUpper := strings.ToUpper(query)

	switch {
	case strings.HasPrefix(queryUpper, "SELECT"):
		if table := tryExtractTable(selectTableRegex, query); table != "" {
			return table
		}
	case strings.HasPrefix(queryUpper, "SET NOCOUNT ON"), strings.HasPrefix(queryUpper, "INSERT"):
		if table := tryExtractTable(insertTableRegex, query); table != "" {
			return table
		}
	case strings.HasPrefix(queryUpper, "UPDATE"):
		if table := tryExtractTable(updateTableRegex, query); table != "" {
			return table
		}
	case strings.HasPrefix(queryUpper, "DELETE"):
		if table := tryExtractTable(deleteTableRegex, query); table != "" {
			return table
		}
	case strings.HasPrefix(queryUpper, "MERGE"):
		if table := tryExtractTable(mergeTableRegex, query); table != "" {
			return table
		}
	}

	return "unknown"
}

func createGauge(meter metric.Meter, name, description string) metric.Int64ObservableGauge {
	gauge, err := meter.Int64ObservableGauge(name, metric.WithDescription(description))
	logMetricError(name, err)
	return gauge
}

func collectInstruments(gauges ...metric.Int64ObservableGauge) []metric.Observable {
	var instruments []metric.Observable
	for _, g := range gauges {
		if g != nil {
			instruments = append(instruments, g)
		}
	}
	return instruments
}

// extractPoolStats pulls the pool gauge values out of a driver stats map.
func extractPoolStats(stats map[string]any) (inUse, idle, maxOpen int64) {
	if val, ok := asInt64(stats["in_use"]); ok {
		inUse = val
	}
	if val, ok := asInt64(stats["idle"]); ok {
		idle = val
	}
	if val, ok := asInt64(stats["max_open_connections"]); ok {
		maxOpen = val
	}
	return
}

// poolMetricsRegistration holds the gauge state for one connection's pool
// metrics callback.
type poolMetricsRegistration struct {
	conn interface {
		Stats() (map[string]any, error)
	}
	activeGauge metric.Int64ObservableGauge
	idleGauge   metric.Int64ObservableGauge
	totalGauge  metric.Int64ObservableGauge
	attrs       []attribute.KeyValue
}

func (r *poolMetricsRegistration) observePoolStats(_ context.Context, observer metric.Observer) error {
	stats, err := r.conn.Stats()
	if err != nil {
		return nil // best effort, never fail collection
	}

	inUse, idle, maxOpen := extractPoolStats(stats)

	if r.activeGauge != nil {
		observer.ObserveInt64(r.activeGauge, inUse, metric.WithAttributes(r.attrs...))
	}
	if r.idleGauge != nil {
		observer.ObserveInt64(r.idleGauge, idle, metric.WithAttributes(r.attrs...))
	}
	if r.totalGauge != nil {
		observer.ObserveInt64(r.totalGauge, maxOpen, metric.WithAttributes(r.attrs...))
	}

	return nil
}

// RegisterConnectionPoolMetrics registers ObservableGauges reporting the
// connection pool's active, idle and configured-maximum sizes. Call once per
// connection; the returned cleanup unregisters the callback. Registration
// degrades gracefully: gauges that fail to create are skipped.
func RegisterConnectionPoolMetrics(conn interface {
	Stats() (map[string]any, error)
}) func() {
	meter := getDBMeter()
	if meter == nil {
		return noOpCleanup()
	}

	reg := &poolMetricsRegistration{
		conn: conn,
		attrs: []attribute.KeyValue{
			attribute.String(metricDbSystem, dbSystemMSSQL),
		},
	}

	reg.activeGauge = createGauge(meter, metricPoolActive, "Number of active database connections")
	reg.idleGauge = createGauge(meter, metricPoolIdle, "Number of idle database connections")
	reg.totalGauge = createGauge(meter, metricPoolTotal, "Maximum number of database connections configured")

	instruments := collectInstruments(reg.activeGauge, reg.idleGauge, reg.totalGauge)
	if len(instruments) == 0 {
		return noOpCleanup()
	}

	registration, err := meter.RegisterCallback(reg.observePoolStats, instruments...)
	if err != nil {
		logMetricError("pool_metrics_callback", err)
		return noOpCleanup()
	}

	return func() {
		if err := registration.Unregister(); err != nil {
			logMetricError("pool_metrics_unregister", err)
		}
	}
}
