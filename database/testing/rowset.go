package testing

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"reflect"
	"runtime"
	"time"
)

// RowSet holds the rows a query expectation returns. It is built with a
// fluent API and converted to *sql.Rows through a throwaway driver when the
// expectation fires.
//
//	rows := NewRowSet("id", "email").
//	    AddRow(1, "alice@example.com").
//	    AddRow(2, "bob@example.com")
type RowSet struct {
	columns []string
	rows    [][]any
}

// NewRowSet creates a RowSet with the given column names.
func NewRowSet(columns ...string) *RowSet {
	return &RowSet{
		columns: columns,
		rows:    make([][]any, 0),
	}
}

// AddRow appends one row. The value count must match the column count;
// a mismatch panics because it is a defect in the test itself.
func (rs *RowSet) AddRow(values ...any) *RowSet {
	if len(values) != len(rs.columns) {
		panic(fmt.Sprintf("AddRow: expected %d values for columns %v, got %d",
			len(rs.columns), rs.columns, len(values)))
	}
	rs.rows = append(rs.rows, values)
	return rs
}

// AddRows appends count generated rows. The generator receives the 0-based
// row index.
func (rs *RowSet) AddRows(count int, generator func(i int) []any) *RowSet {
	for i := 0; i < count; i++ {
		rs.AddRow(generator(i)...)
	}
	return rs
}

// RowCount returns the number of rows.
func (rs *RowSet) RowCount() int {
	return len(rs.rows)
}

// Columns returns a copy of the column names.
func (rs *RowSet) Columns() []string {
	return append([]string{}, rs.columns...)
}

// normalizeRow converts one row's values to driver-compatible types.
func (rs *RowSet) normalizeRow(rowIdx int) ([]any, error) {
	if rowIdx >= len(rs.rows) {
		return nil, fmt.Errorf("row index %d out of bounds", rowIdx)
	}

	row := rs.rows[rowIdx]
	normalized := make([]any, len(row))
	for i, val := range row {
		normVal, err := normalizeDriverValue(val)
		if err != nil {
			return nil, fmt.Errorf("column %d (%s): %w", i, rs.columns[i], err)
		}
		normalized[i] = normVal
	}
	return normalized, nil
}

// toSQLRows materializes the RowSet as *sql.Rows. The rows are backed by a
// temporary *sql.DB; callers must Close() them, the finalizer is only a
// safety net.
func (rs *RowSet) toSQLRows() (*sql.Rows, error) {
	connector := newRowSetConnector(rs)
	db := sql.OpenDB(connector)
	rows, err := db.QueryContext(context.Background(), rowSetQueryLabel)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	runtime.SetFinalizer(rows, func(r *sql.Rows) {
		_ = r.Close()
		_ = db.Close()
	})

	return rows, nil
}

const rowSetQueryLabel = "rowset-query"

// rowSetConnector satisfies driver.Connector so a RowSet can be fed through
// sql.OpenDB and come back out as real *sql.Rows.
type rowSetConnector struct {
	columns []string
	rows    [][]any
}

func newRowSetConnector(rs *RowSet) *rowSetConnector {
	return &rowSetConnector{
		columns: append([]string{}, rs.columns...),
		rows:    cloneRowValues(rs.rows),
	}
}

func (c *rowSetConnector) Connect(context.Context) (driver.Conn, error) {
	return &rowSetConn{
		columns: c.columns,
		rows:    c.rows,
	}, nil
}

func (c *rowSetConnector) Driver() driver.Driver {
	return rowSetDriver{}
}

type rowSetDriver struct{}

func (rowSetDriver) Open(string) (driver.Conn, error) {
	return nil, fmt.Errorf("rowSetDriver must be used via connector")
}

type rowSetConn struct {
	columns []string
	rows    [][]any
}

func (c *rowSetConn) Prepare(string) (driver.Stmt, error) {
	return nil, fmt.Errorf("Prepare not supported for rowSetConn")
}

func (c *rowSetConn) Close() error { return nil }

func (c *rowSetConn) Begin() (driver.Tx, error) {
	return nil, fmt.Errorf("transactions not supported for rowSetConn")
}

func (c *rowSetConn) QueryContext(context.Context, string, []driver.NamedValue) (driver.Rows, error) {
	return &rowSetRows{
		columns: append([]string{}, c.columns...),
		rows:    cloneRowValues(c.rows),
	}, nil
}

func (c *rowSetConn) Query(query string, _ []driver.Value) (driver.Rows, error) {
	return c.QueryContext(context.Background(), query, nil)
}

type rowSetRows struct {
	columns []string
	rows    [][]any
	idx     int
}

func (r *rowSetRows) Columns() []string {
	return append([]string{}, r.columns...)
}

func (r *rowSetRows) Close() error {
	r.rows = nil
	return nil
}

func (r *rowSetRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}

	row := r.rows[r.idx]
	if len(row) != len(r.columns) {
		return fmt.Errorf("row %d has %d values, expected %d", r.idx, len(row), len(r.columns))
	}
	for i, val := range row {
		normalized, err := normalizeDriverValue(val)
		if err != nil {
			return err
		}
		dest[i] = normalized
	}

	r.idx++
	return nil
}

func cloneRowValues(rows [][]any) [][]any {
	if len(rows) == 0 {
		return nil
	}
	copyRows := make([][]any, len(rows))
	for i, row := range rows {
		rowCopy := make([]any, len(row))
		copy(rowCopy, row)
		copyRows[i] = rowCopy
	}
	return copyRows
}

// normalizeDriverValue coerces a Go value to a driver.Value the same way
// database/sql would.
func normalizeDriverValue(v any) (driver.Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case int64:
		return val, nil
	case int:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case bool:
		return val, nil
	case string:
		return val, nil
	case []byte:
		return append([]byte(nil), val...), nil
	case time.Time:
		return val, nil
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Ptr {
			if rv.IsNil() {
				return nil, nil
			}
			return normalizeDriverValue(rv.Elem().Interface())
		}
		if stringer, ok := v.(fmt.Stringer); ok {
			return stringer.String(), nil
		}
		return nil, fmt.Errorf("unsupported RowSet value type %T", v)
	}
}
