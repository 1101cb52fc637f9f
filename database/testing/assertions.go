package testing

import (
	"fmt"
	"strings"
	"testing"
)

// AssertQueryExecuted fails the test unless a Query/QueryRow call matching
// sqlPattern was made. Matching follows the TestDB's matching mode.
func AssertQueryExecuted(t *testing.T, db *TestDB, sqlPattern string) {
	t.Helper()
	for _, call := range db.QueryLog() {
		if db.matchSQL(sqlPattern, call.SQL) {
			return
		}
	}
	t.Errorf("expected query matching %q was not executed\nexecuted queries:\n%s",
		sqlPattern, formatQueryLog(db.QueryLog()))
}

// AssertQueryNotExecuted fails the test if a matching Query/QueryRow call
// was made.
func AssertQueryNotExecuted(t *testing.T, db *TestDB, sqlPattern string) {
	t.Helper()
	for _, call := range db.QueryLog() {
		if db.matchSQL(sqlPattern, call.SQL) {
			t.Errorf("query matching %q should not have been executed, got: %s", sqlPattern, call.SQL)
			return
		}
	}
}

// AssertExecExecuted fails the test unless an Exec call matching sqlPattern
// was made.
func AssertExecExecuted(t *testing.T, db *TestDB, sqlPattern string) {
	t.Helper()
	for _, call := range db.ExecLog() {
		if db.matchSQL(sqlPattern, call.SQL) {
			return
		}
	}
	t.Errorf("expected exec matching %q was not executed\nexecuted statements:\n%s",
		sqlPattern, formatExecLog(db.ExecLog()))
}

// AssertExecCount fails the test unless exactly expected Exec calls matched
// sqlPattern.
func AssertExecCount(t *testing.T, db *TestDB, sqlPattern string, expected int) {
	t.Helper()
	count := 0
	for _, call := range db.ExecLog() {
		if db.matchSQL(sqlPattern, call.SQL) {
			count++
		}
	}
	if count != expected {
		t.Errorf("expected %d execs matching %q, got %d", expected, sqlPattern, count)
	}
}

// AssertCommitted fails the test unless the transaction was committed.
func AssertCommitted(t *testing.T, tx *TestTx) {
	t.Helper()
	if !tx.IsCommitted() {
		t.Error("expected transaction to be committed")
	}
}

// AssertRolledBack fails the test unless the transaction was rolled back.
func AssertRolledBack(t *testing.T, tx *TestTx) {
	t.Helper()
	if !tx.IsRolledBack() {
		t.Error("expected transaction to be rolled back")
	}
}

func formatQueryLog(log []QueryCall) string {
	if len(log) == 0 {
		return "  (none)"
	}
	var b strings.Builder
	for i, call := range log {
		fmt.Fprintf(&b, "  %d: %s\n", i+1, call.SQL)
	}
	return b.String()
}

func formatExecLog(log []ExecCall) string {
	if len(log) == 0 {
		return "  (none)"
	}
	var b strings.Builder
	for i, call := range log {
		fmt.Fprintf(&b, "  %d: %s\n", i+1, call.SQL)
	}
	return b.String()
}
