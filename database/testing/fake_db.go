// Package testing provides an in-memory fake SQL Server connection for unit
// testing code that executes generated statements. The primary type is
// TestDB, which implements types.Interface with expectation-based mocking,
// so callers can verify the exact T-SQL their code runs without a live
// server.
//
// When using Query() or TestTx.Query(), callers must defer rows.Close():
// the returned *sql.Rows is backed by a temporary *sql.DB that needs
// explicit cleanup.
package testing

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	dbtypes "github.com/sqlbricks/go-mssql/database/types"
)

// defaultServerVersion is what ServerVersion reports unless overridden.
// It corresponds to SQL Server 2019.
const defaultServerVersion = "15.0.2000.5"

// TestDB is an in-memory fake implementing types.Interface. Expectations
// are registered up front with ExpectQuery, ExpectExec, and
// ExpectTransaction; executed statements are recorded for assertion.
//
//	db := NewTestDB().
//	    ExpectQuery("SELECT").WillReturnRows(NewRowSet("id").AddRow(1))
type TestDB struct {
	serverVersion       string
	queries             []*QueryExpectation
	execs               []*ExecExpectation
	queryLog            []QueryCall
	execLog             []ExecCall
	strictMatch         bool
	txExpectations      []*TxExpectation
	startedTransactions []*TxExpectation
	mu                  sync.RWMutex
}

// QueryCall records a single Query or QueryRow invocation.
type QueryCall struct {
	SQL  string
	Args []any
}

// ExecCall records a single Exec invocation.
type ExecCall struct {
	SQL  string
	Args []any
}

// QueryExpectation defines the outcome of a matching query.
type QueryExpectation struct {
	sql  string
	rows *RowSet
	err  error
}

// ExecExpectation defines the outcome of a matching exec.
type ExecExpectation struct {
	sql          string
	rowsAffected int64
	lastInsertID int64
	err          error
}

// TxExpectation tracks one expected Begin() call.
type TxExpectation struct {
	tx        *TestTx
	shouldErr error
}

// NewTestDB creates an empty fake connection.
func NewTestDB() *TestDB {
	return &TestDB{serverVersion: defaultServerVersion}
}

// WithServerVersion overrides the product version reported by
// ServerVersion. Useful for exercising the legacy statement paths.
func (db *TestDB) WithServerVersion(version string) *TestDB {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.serverVersion = version
	return db
}

// StrictSQLMatching switches expectation matching from substring to exact
// comparison (after trimming whitespace).
func (db *TestDB) StrictSQLMatching() *TestDB {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.strictMatch = true
	return db
}

// ExpectQuery registers an expectation for Query or QueryRow calls whose
// statement matches sqlPattern.
func (db *TestDB) ExpectQuery(sqlPattern string) *QueryExpectation {
	exp := &QueryExpectation{sql: sqlPattern}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.queries = append(db.queries, exp)
	return exp
}

// ExpectExec registers an expectation for Exec calls whose statement
// matches sqlPattern.
func (db *TestDB) ExpectExec(sqlPattern string) *ExecExpectation {
	exp := &ExecExpectation{sql: sqlPattern}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.execs = append(db.execs, exp)
	return exp
}

// ExpectTransaction registers an expectation for Begin(). The returned
// TestTx carries its own query and exec expectations.
func (db *TestDB) ExpectTransaction() *TestTx {
	tx := &TestTx{parent: db}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.txExpectations = append(db.txExpectations, &TxExpectation{tx: tx})
	return tx
}

// QueryLog returns all Query/QueryRow calls made so far.
func (db *TestDB) QueryLog() []QueryCall {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]QueryCall{}, db.queryLog...)
}

// ExecLog returns all Exec calls made so far.
func (db *TestDB) ExecLog() []ExecCall {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]ExecCall{}, db.execLog...)
}

func (db *TestDB) matchSQL(expected, actual string) bool {
	if db.strictMatch {
		return strings.TrimSpace(expected) == strings.TrimSpace(actual)
	}
	return strings.Contains(actual, expected)
}

// findQueryExpectation returns the first matching query expectation in
// registration order, or nil.
func (db *TestDB) findQueryExpectation(actualSQL string) *QueryExpectation {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, exp := range db.queries {
		if db.matchSQL(exp.sql, actualSQL) {
			return exp
		}
	}
	return nil
}

func (db *TestDB) findExecExpectation(actualSQL string) *ExecExpectation {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, exp := range db.execs {
		if db.matchSQL(exp.sql, actualSQL) {
			return exp
		}
	}
	return nil
}

// Query implements types.Interface. Callers must defer rows.Close().
func (db *TestDB) Query(_ context.Context, query string, args ...any) (*sql.Rows, error) {
	db.mu.Lock()
	db.queryLog = append(db.queryLog, QueryCall{SQL: query, Args: args})
	db.mu.Unlock()

	exp := db.findQueryExpectation(query)
	if exp == nil {
		return nil, fmt.Errorf("unexpected query: %s (no matching expectation)", query)
	}

	if exp.err != nil {
		return nil, exp.err
	}

	if exp.rows == nil {
		return nil, fmt.Errorf("query expectation for %q has no rows configured (use WillReturnRows)", query)
	}

	return exp.rows.toSQLRows()
}

// QueryRow implements types.Interface. It returns the first configured row,
// or a row that scans to sql.ErrNoRows when the RowSet is empty.
func (db *TestDB) QueryRow(_ context.Context, query string, args ...any) dbtypes.Row {
	db.mu.Lock()
	db.queryLog = append(db.queryLog, QueryCall{SQL: query, Args: args})
	db.mu.Unlock()

	exp := db.findQueryExpectation(query)
	if exp == nil {
		return &testRow{err: fmt.Errorf("unexpected query: %s (no matching expectation)", query)}
	}

	if exp.err != nil {
		return &testRow{err: exp.err}
	}

	if exp.rows == nil {
		return &testRow{err: fmt.Errorf("query expectation for %q has no rows configured (use WillReturnRows)", query)}
	}

	if len(exp.rows.rows) == 0 {
		return &testRow{err: sql.ErrNoRows}
	}

	normalized, err := exp.rows.normalizeRow(0)
	if err != nil {
		return &testRow{err: fmt.Errorf("failed to normalize row: %w", err)}
	}

	return &testRow{values: normalized}
}

// Exec implements types.Interface.
func (db *TestDB) Exec(_ context.Context, query string, args ...any) (sql.Result, error) {
	db.mu.Lock()
	db.execLog = append(db.execLog, ExecCall{SQL: query, Args: args})
	db.mu.Unlock()

	exp := db.findExecExpectation(query)
	if exp == nil {
		return nil, fmt.Errorf("unexpected exec: %s (no matching expectation)", query)
	}

	if exp.err != nil {
		return nil, exp.err
	}

	return &testResult{rowsAffected: exp.rowsAffected, lastInsertID: exp.lastInsertID}, nil
}

// Begin implements types.Interface. Each call consumes one
// ExpectTransaction registration.
func (db *TestDB) Begin(_ context.Context) (dbtypes.Tx, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if len(db.txExpectations) == 0 {
		return nil, fmt.Errorf("unexpected Begin() call (use ExpectTransaction)")
	}

	txExp := db.txExpectations[0]
	db.txExpectations = db.txExpectations[1:]
	db.startedTransactions = append(db.startedTransactions, txExp)

	if txExp.shouldErr != nil {
		return nil, txExp.shouldErr
	}

	return txExp.tx, nil
}

// BeginTx implements types.Interface; options are ignored.
func (db *TestDB) BeginTx(ctx context.Context, _ *sql.TxOptions) (dbtypes.Tx, error) {
	return db.Begin(ctx)
}

// Prepare is not supported; tests exercise statements through Query/Exec.
func (db *TestDB) Prepare(_ context.Context, _ string) (dbtypes.Statement, error) {
	return nil, fmt.Errorf("Prepare() not implemented in TestDB")
}

// Health implements types.Interface; the fake is always healthy.
func (db *TestDB) Health(_ context.Context) error {
	return nil
}

// Stats implements types.Interface with call counters.
func (db *TestDB) Stats() (map[string]any, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return map[string]any{
		"query_count": len(db.queryLog),
		"exec_count":  len(db.execLog),
	}, nil
}

// Close implements types.Interface; it is a no-op.
func (db *TestDB) Close() error {
	return nil
}

// DatabaseType implements types.Interface.
func (db *TestDB) DatabaseType() string {
	return dbtypes.SQLServer
}

// ServerVersion implements types.Interface, reporting the configured
// product version.
func (db *TestDB) ServerVersion(_ context.Context) (string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.serverVersion, nil
}

// WillReturnRows configures the query expectation's result rows.
func (qe *QueryExpectation) WillReturnRows(rows *RowSet) *QueryExpectation {
	qe.rows = rows
	return qe
}

// WillReturnError makes the query expectation fail with err.
func (qe *QueryExpectation) WillReturnError(err error) *QueryExpectation {
	qe.err = err
	return qe
}

// WillReturnRowsAffected configures the exec expectation's affected count.
func (ee *ExecExpectation) WillReturnRowsAffected(n int64) *ExecExpectation {
	ee.rowsAffected = n
	return ee
}

// WillReturnError makes the exec expectation fail with err.
func (ee *ExecExpectation) WillReturnError(err error) *ExecExpectation {
	ee.err = err
	return ee
}

// testRow implements dbtypes.Row for QueryRow results.
type testRow struct {
	values  []any
	err     error
	scanned bool
}

func (r *testRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if r.scanned {
		return fmt.Errorf("row already scanned")
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan expects %d values, got %d", len(r.values), len(dest))
	}

	for i, v := range r.values {
		if err := convertAssign(dest[i], v); err != nil {
			return fmt.Errorf("column %d: %w", i, err)
		}
	}

	r.scanned = true
	return nil
}

func (r *testRow) Err() error {
	return r.err
}

// convertAssign mimics the conversions database/sql applies when scanning,
// for the destination types the library's own tests and typical consumers
// use. Nullable columns scan into pointer-to-pointer destinations.
func convertAssign(dest, src any) error {
	if src == nil {
		return setDestNil(dest)
	}

	if scanner, ok := dest.(sql.Scanner); ok {
		return scanner.Scan(src)
	}

	switch d := dest.(type) {
	case *string:
		return assignString(d, src)
	case **string:
		var temp string
		if err := assignString(&temp, src); err != nil {
			return err
		}
		*d = &temp
		return nil
	case *[]byte:
		return assignBytes(d, src)
	case *int:
		return assignInt(d, src)
	case **int:
		var temp int
		if err := assignInt(&temp, src); err != nil {
			return err
		}
		*d = &temp
		return nil
	case *int64:
		return assignInt64(d, src)
	case **int64:
		var temp int64
		if err := assignInt64(&temp, src); err != nil {
			return err
		}
		*d = &temp
		return nil
	case *bool:
		b, ok := src.(bool)
		if !ok {
			return fmt.Errorf("unsupported conversion from %T to *bool", src)
		}
		*d = b
		return nil
	case *float64:
		return assignFloat64(d, src)
	case *time.Time:
		t, ok := src.(time.Time)
		if !ok {
			return fmt.Errorf("unsupported conversion from %T to *time.Time", src)
		}
		*d = t
		return nil
	case **time.Time:
		t, ok := src.(time.Time)
		if !ok {
			return fmt.Errorf("unsupported conversion from %T to **time.Time", src)
		}
		*d = &t
		return nil
	case *any:
		*d = src
		return nil
	default:
		return fmt.Errorf("unsupported scan destination type %T", dest)
	}
}

func assignString(dest *string, src any) error {
	switch s := src.(type) {
	case string:
		*dest = s
	case []byte:
		*dest = string(s)
	default:
		return fmt.Errorf("unsupported conversion from %T to *string", src)
	}
	return nil
}

func assignBytes(dest *[]byte, src any) error {
	switch s := src.(type) {
	case []byte:
		*dest = s
	case string:
		*dest = []byte(s)
	default:
		return fmt.Errorf("unsupported conversion from %T to *[]byte", src)
	}
	return nil
}

func assignInt(dest *int, src any) error {
	switch s := src.(type) {
	case int64:
		*dest = int(s)
	case int:
		*dest = s
	default:
		return fmt.Errorf("unsupported conversion from %T to *int", src)
	}
	return nil
}

func assignInt64(dest *int64, src any) error {
	switch s := src.(type) {
	case int64:
		*dest = s
	case int:
		*dest = int64(s)
	default:
		return fmt.Errorf("unsupported conversion from %T to *int64", src)
	}
	return nil
}

func assignFloat64(dest *float64, src any) error {
	switch s := src.(type) {
	case float64:
		*dest = s
	case float32:
		*dest = float64(s)
	default:
		return fmt.Errorf("unsupported conversion from %T to *float64", src)
	}
	return nil
}

// setDestNil handles NULL sources. Pointer-to-pointer destinations accept
// NULL by becoming nil; scalar pointers reject it the way database/sql does.
func setDestNil(dest any) error {
	switch d := dest.(type) {
	case **string:
		*d = nil
	case **int:
		*d = nil
	case **int64:
		*d = nil
	case **time.Time:
		*d = nil
	case *[]byte:
		*d = nil
	case *any:
		*d = nil
	default:
		if scanner, ok := dest.(sql.Scanner); ok {
			return scanner.Scan(nil)
		}
		return fmt.Errorf("sql: converting NULL to %T is unsupported", dest)
	}
	return nil
}

// testResult implements sql.Result for Exec results.
type testResult struct {
	rowsAffected int64
	lastInsertID int64
}

func (r *testResult) LastInsertId() (int64, error) {
	return r.lastInsertID, nil
}

func (r *testResult) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}
