package tracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/sqlbricks/go-mssql/logger"
)

const (
	// Default operation type for unidentified queries
	defaultOperation = "query"

	// db.system value for SQL Server per OTel semantic conventions
	dbSystemMSSQL = "mssql"

	// OpenTelemetry instrumentation constants
	dbTracerName      = "go-mssql/database" // Tracer name for database operations
	maxDBQueryAttrLen = 2000                // Maximum length for db.query.text attribute
)

// TrackDBOperation records metrics and emits a log event for a completed
// database operation.
//
// It is a no-op when tc or its Logger is nil. The operation's duration is
// added to the request-scoped counters, an OTel span and metrics are
// recorded, the statement text is clamped to the configured maximum length,
// and, when enabled, a sanitized form of the parameters is included in the
// log event. sql.ErrNoRows is logged at debug level rather than as an error;
// an error-free operation past the slow-query threshold logs a warning.
//
// rowsAffected is the write-operation row count; pass 0 for reads.
func TrackDBOperation(ctx context.Context, tc *Context, query string, args []any, start time.Time, rowsAffected int64, err error) {
	if tc == nil || tc.Logger == nil {
		return
	}

	elapsed := time.Since(start)

	if ctx != nil {
		logger.IncrementDBCounter(ctx)
		logger.AddDBElapsed(ctx, elapsed.Nanoseconds())

		createDBSpan(ctx, tc, query, start, err)
		recordDBMetrics(ctx, tc, query, elapsed, rowsAffected, err)
	}

	truncatedQuery := query
	if tc.Settings.MaxQueryLength() > 0 && len(query) > tc.Settings.MaxQueryLength() {
		truncatedQuery = TruncateString(query, tc.Settings.MaxQueryLength())
	}

	logEvent := tc.Logger.WithContext(ctx).WithFields(map[string]any{
		"vendor":      tc.Vendor,
		"duration_ms": elapsed.Milliseconds(),
		"duration_ns": elapsed.Nanoseconds(),
		"query":       truncatedQuery,
	})

	if tc.Settings.LogQueryParameters() && len(args) > 0 {
		logEvent = logEvent.WithFields(map[string]any{
			"args": SanitizeArgs(args, tc.Settings.MaxQueryLength()),
		})
	}

	if err != nil {
		// sql.ErrNoRows is a normal empty result, not a failure
		if errors.Is(err, sql.ErrNoRows) {
			logEvent.Debug().Msg("Database operation returned no rows")
		} else {
			logEvent.Error().Err(err).Msg("Database operation error")
		}
	} else if elapsed > tc.Settings.SlowQueryThreshold() {
		logEvent.Warn().Msgf("Slow database operation detected (%s)", elapsed)
	} else {
		logEvent.Debug().Msg("Database operation executed")
	}
}

// extractRowsAffected safely extracts the number of rows affected from a
// sql.Result. Returns 0 when the result is nil, the operation errored, or
// RowsAffected itself fails.
func extractRowsAffected(result sql.Result, err error) int64 {
	if result == nil || err != nil {
		return 0
	}

	affected, affErr := result.RowsAffected()
	if affErr != nil {
		return 0
	}

	return affected
}

// TruncateString truncates value to at most maxLen runes, appending "..."
// when space allows to indicate truncation. maxLen <= 0 disables truncation.
func TruncateString(value string, maxLen int) string {
	if maxLen <= 0 {
		return value
	}
	r := []rune(value)
	if len(r) <= maxLen {
		return value
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// SanitizeArgs returns a sanitized copy of args suitable for logging:
// strings truncated to maxLen runes, byte slices replaced with a
// "<bytes len=N>" placeholder, everything else formatted then truncated.
func SanitizeArgs(args []any, maxLen int) []any {
	if len(args) == 0 {
		return nil
	}
	sanitized := make([]any, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case string:
			sanitized[i] = TruncateString(v, maxLen)
		case []byte:
			sanitized[i] = fmt.Sprintf("<bytes len=%d>", len(v))
		default:
			sanitized[i] = TruncateString(fmt.Sprintf("%v", v), maxLen)
		}
	}
	return sanitized
}

// createDBSpan creates an OpenTelemetry span for a database operation with
// standard database semantic attributes, using the exact operation start
// time so distributed traces line up with the measured duration.
func createDBSpan(ctx context.Context, tc *Context, query string, start time.Time, err error) {
	tracer := otel.Tracer(dbTracerName)

	operation := extractDBOperation(query)
	spanName := fmt.Sprintf("db.%s", operation)

	_, span := tracer.Start(ctx, spanName,
		trace.WithTimestamp(start),
		trace.WithSpanKind(trace.SpanKindClient),
	)

	truncatedQuery := query
	if len(query) > maxDBQueryAttrLen {
		truncatedQuery = TruncateString(query, maxDBQueryAttrLen)
	}

	attrs := []attribute.KeyValue{
		attribute.String("db.system", dbSystemMSSQL),
		semconv.DBQueryText(truncatedQuery),
	}
	if operation != defaultOperation {
		attrs = append(attrs, semconv.DBOperationName(operation))
	}
	if tc.ServerAddress != "" {
		attrs = append(attrs, semconv.ServerAddress(tc.ServerAddress))
	}
	if tc.ServerPort > 0 {
		attrs = append(attrs, semconv.ServerPort(tc.ServerPort))
	}
	if tc.Namespace != "" {
		attrs = append(attrs, semconv.DBNamespace(tc.Namespace))
	}

	span.SetAttributes(attrs...)

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}

// extractDBOperation extracts the operation type from a statement. Returns a
// lowercase operation name (select, insert, merge, ...) or "query" when the
// statement cannot be classified.
func extractDBOperation(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return defaultOperation
	}

	// Internal markers emitted by the wrappers
	if strings.HasPrefix(query, "PREPARE:") || strings.HasPrefix(query, "TX_PREPARE:") {
		return "prepare"
	}
	if strings.HasPrefix(query, "STMT_") {
		return "execute"
	}
	switch query {
	case "BEGIN", "BEGIN_TX":
		return "begin"
	case "TX_COMMIT":
		return "commit"
	case "TX_ROLLBACK":
		return "rollback"
	}

	// Returning inserts are wrapped in a SET NOCOUNT ON batch
	if strings.HasPrefix(strings.ToUpper(query), "SET NOCOUNT ON") {
		return "insert"
	}

	parts := strings.Fields(query)
	if len(parts) == 0 {
		return defaultOperation
	}

	operation := strings.ToLower(parts[0])
	switch operation {
	case "select", "insert", "update", "delete", "merge", "create", "drop", "alter", "truncate", "exec", "dbcc", "sp_rename":
		return operation
	default:
		return defaultOperation
	}
}
