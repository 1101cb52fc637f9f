package testing

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	dbtypes "github.com/sqlbricks/go-mssql/database/types"
)

// TestTx is the fake transaction handed out by TestDB.ExpectTransaction.
// It carries its own expectations, separate from the parent connection's,
// and records whether it was committed or rolled back.
//
//	tx := db.ExpectTransaction().
//	    ExpectExec("INSERT INTO [orders]").WillReturnRowsAffected(1)
type TestTx struct {
	parent     *TestDB
	queries    []*QueryExpectation
	execs      []*ExecExpectation
	lastQuery  *QueryExpectation
	lastExec   *ExecExpectation
	queryLog   []QueryCall
	execLog    []ExecCall
	committed  bool
	rolledBack bool
	mu         sync.RWMutex
}

// ExpectQuery registers a query expectation on the transaction and returns
// the TestTx for chaining; configure the result with WillReturnRows.
func (tx *TestTx) ExpectQuery(sqlPattern string) *TestTx {
	exp := &QueryExpectation{sql: sqlPattern}
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.queries = append(tx.queries, exp)
	tx.lastQuery = exp
	return tx
}

// WillReturnRows configures the most recently registered query expectation.
func (tx *TestTx) WillReturnRows(rows *RowSet) *TestTx {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.lastQuery == nil {
		panic("WillReturnRows called before ExpectQuery")
	}
	tx.lastQuery.rows = rows
	return tx
}

// ExpectExec registers an exec expectation on the transaction and returns
// the TestTx for chaining; configure the result with WillReturnRowsAffected.
func (tx *TestTx) ExpectExec(sqlPattern string) *TestTx {
	exp := &ExecExpectation{sql: sqlPattern}
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.execs = append(tx.execs, exp)
	tx.lastExec = exp
	return tx
}

// WillReturnRowsAffected configures the most recently registered exec
// expectation.
func (tx *TestTx) WillReturnRowsAffected(n int64) *TestTx {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.lastExec == nil {
		panic("WillReturnRowsAffected called before ExpectExec")
	}
	tx.lastExec.rowsAffected = n
	return tx
}

// Query implements dbtypes.Tx. Callers must defer rows.Close().
func (tx *TestTx) Query(_ context.Context, query string, args ...any) (*sql.Rows, error) {
	tx.mu.Lock()
	tx.queryLog = append(tx.queryLog, QueryCall{SQL: query, Args: args})
	tx.mu.Unlock()

	exp := tx.findQueryExpectation(query)
	if exp == nil {
		return nil, fmt.Errorf("unexpected transaction query: %s (no matching expectation)", query)
	}

	if exp.err != nil {
		return nil, exp.err
	}

	if exp.rows == nil {
		return nil, fmt.Errorf("transaction query expectation for %q has no rows configured", query)
	}

	return exp.rows.toSQLRows()
}

// QueryRow implements dbtypes.Tx.
func (tx *TestTx) QueryRow(_ context.Context, query string, args ...any) dbtypes.Row {
	tx.mu.Lock()
	tx.queryLog = append(tx.queryLog, QueryCall{SQL: query, Args: args})
	tx.mu.Unlock()

	exp := tx.findQueryExpectation(query)
	if exp == nil {
		return &testRow{err: fmt.Errorf("unexpected transaction query: %s (no matching expectation)", query)}
	}

	if exp.err != nil {
		return &testRow{err: exp.err}
	}

	if exp.rows == nil || len(exp.rows.rows) == 0 {
		return &testRow{err: sql.ErrNoRows}
	}

	normalized, err := exp.rows.normalizeRow(0)
	if err != nil {
		return &testRow{err: fmt.Errorf("failed to normalize row: %w", err)}
	}

	return &testRow{values: normalized}
}

// Exec implements dbtypes.Tx.
func (tx *TestTx) Exec(_ context.Context, query string, args ...any) (sql.Result, error) {
	tx.mu.Lock()
	tx.execLog = append(tx.execLog, ExecCall{SQL: query, Args: args})
	tx.mu.Unlock()

	exp := tx.findExecExpectation(query)
	if exp == nil {
		return nil, fmt.Errorf("unexpected transaction exec: %s (no matching expectation)", query)
	}

	if exp.err != nil {
		return nil, exp.err
	}

	return &testResult{rowsAffected: exp.rowsAffected, lastInsertID: exp.lastInsertID}, nil
}

// Prepare is not supported inside the fake transaction.
func (tx *TestTx) Prepare(_ context.Context, _ string) (dbtypes.Statement, error) {
	return nil, fmt.Errorf("Prepare() not implemented in TestTx")
}

// Commit marks the transaction committed.
func (tx *TestTx) Commit() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.rolledBack {
		return fmt.Errorf("transaction already rolled back")
	}
	if tx.committed {
		return fmt.Errorf("transaction already committed")
	}
	tx.committed = true
	return nil
}

// Rollback marks the transaction rolled back.
func (tx *TestTx) Rollback() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.committed {
		return fmt.Errorf("transaction already committed")
	}
	if tx.rolledBack {
		return fmt.Errorf("transaction already rolled back")
	}
	tx.rolledBack = true
	return nil
}

// IsCommitted reports whether Commit was called.
func (tx *TestTx) IsCommitted() bool {
	tx.mu.RLock()
	defer tx.mu.RUnlock()
	return tx.committed
}

// IsRolledBack reports whether Rollback was called.
func (tx *TestTx) IsRolledBack() bool {
	tx.mu.RLock()
	defer tx.mu.RUnlock()
	return tx.rolledBack
}

// QueryLog returns all queries executed within the transaction.
func (tx *TestTx) QueryLog() []QueryCall {
	tx.mu.RLock()
	defer tx.mu.RUnlock()
	return append([]QueryCall{}, tx.queryLog...)
}

// ExecLog returns all execs executed within the transaction.
func (tx *TestTx) ExecLog() []ExecCall {
	tx.mu.RLock()
	defer tx.mu.RUnlock()
	return append([]ExecCall{}, tx.execLog...)
}

func (tx *TestTx) findQueryExpectation(actualSQL string) *QueryExpectation {
	tx.mu.RLock()
	defer tx.mu.RUnlock()

	for _, exp := range tx.queries {
		if tx.parent.matchSQL(exp.sql, actualSQL) {
			return exp
		}
	}
	return nil
}

func (tx *TestTx) findExecExpectation(actualSQL string) *ExecExpectation {
	tx.mu.RLock()
	defer tx.mu.RUnlock()

	for _, exp := range tx.execs {
		if tx.parent.matchSQL(exp.sql, actualSQL) {
			return exp
		}
	}
	return nil
}
