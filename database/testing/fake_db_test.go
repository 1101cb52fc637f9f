package testing

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlbricks/go-mssql/database"
)

func TestTestDBQueryRoundTrip(t *testing.T) {
	db := NewTestDB()
	db.ExpectQuery("SELECT").WillReturnRows(
		NewRowSet("id", "email").
			AddRow(1, "alice@example.com").
			AddRow(2, "bob@example.com"))

	rows, err := db.Query(context.Background(), "SELECT [id], [email] FROM [customer]")
	require.NoError(t, err)
	defer rows.Close()

	var ids []int
	var emails []string
	for rows.Next() {
		var id int
		var email string
		require.NoError(t, rows.Scan(&id, &email))
		ids = append(ids, id)
		emails = append(emails, email)
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, []int{1, 2}, ids)
	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, emails)
	AssertQueryExecuted(t, db, "FROM [customer]")
}

func TestTestDBExecutesGeneratedStatements(t *testing.T) {
	qb := database.NewQueryBuilder(database.DefaultDialect(), nil)
	stmt, params, err := qb.Insert("customer", map[string]any{"email": "alice@example.com"}, nil)
	require.NoError(t, err)

	db := NewTestDB()
	db.ExpectExec("INSERT INTO [customer]").WillReturnRowsAffected(1)

	bound, args := database.BindNamed(stmt, params)
	result, err := db.Exec(context.Background(), bound, args...)
	require.NoError(t, err)
	affected, err := result.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	AssertExecExecuted(t, db, "INSERT INTO [customer] ([email]) VALUES (@qp0)")
	AssertExecCount(t, db, "INSERT INTO", 1)

	log := db.ExecLog()
	require.Len(t, log, 1)
	require.Len(t, log[0].Args, 1)
	named, ok := log[0].Args[0].(sql.NamedArg)
	require.True(t, ok)
	assert.Equal(t, "qp0", named.Name)
	assert.Equal(t, "alice@example.com", named.Value)
}

func TestTestDBQueryRowNullHandling(t *testing.T) {
	db := NewTestDB()
	db.ExpectQuery("SELECT [name]").WillReturnRows(NewRowSet("name").AddRow(nil))

	var name *string
	row := db.QueryRow(context.Background(), "SELECT [name] FROM [customer] WHERE [id] = :qp0", 1)
	require.NoError(t, row.Scan(&name))
	assert.Nil(t, name)

	var plain string
	db.ExpectQuery("SELECT [email]").WillReturnRows(NewRowSet("email").AddRow(nil))
	row = db.QueryRow(context.Background(), "SELECT [email] FROM [customer]")
	err := row.Scan(&plain)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "converting NULL")
}

func TestTestDBQueryRowNoRows(t *testing.T) {
	db := NewTestDB()
	db.ExpectQuery("SELECT").WillReturnRows(NewRowSet("id"))

	var id int
	err := db.QueryRow(context.Background(), "SELECT [id] FROM [customer]").Scan(&id)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestTestDBUnexpectedStatements(t *testing.T) {
	db := NewTestDB()

	_, err := db.Query(context.Background(), "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected query")

	_, err = db.Exec(context.Background(), "DELETE FROM [t]")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected exec")
}

func TestTestDBStrictMatching(t *testing.T) {
	db := NewTestDB().StrictSQLMatching()
	db.ExpectExec("DELETE FROM [customer] WHERE [id] = :qp0").WillReturnRowsAffected(1)

	_, err := db.Exec(context.Background(), "DELETE FROM [customer]")
	require.Error(t, err)

	_, err = db.Exec(context.Background(), "DELETE FROM [customer] WHERE [id] = :qp0", 1)
	require.NoError(t, err)
}

func TestTestDBTransactions(t *testing.T) {
	db := NewTestDB()
	tx := db.ExpectTransaction().
		ExpectExec("INSERT INTO [order_log]").WillReturnRowsAffected(1)

	started, err := db.Begin(context.Background())
	require.NoError(t, err)

	_, err = started.Exec(context.Background(), "INSERT INTO [order_log] ([message]) VALUES (:qp0)", "hi")
	require.NoError(t, err)
	require.NoError(t, started.Commit())

	AssertCommitted(t, tx)
	assert.Error(t, started.Rollback())
}

func TestTestDBUnexpectedBegin(t *testing.T) {
	db := NewTestDB()
	_, err := db.Begin(context.Background())
	require.Error(t, err)
}

func TestTestDBServerVersion(t *testing.T) {
	db := NewTestDB()
	version, err := db.ServerVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "15.0.2000.5", version)

	db.WithServerVersion("10.50.1600.1")
	version, err = db.ServerVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "10.50.1600.1", version)

	qb, err := database.NewQueryBuilderForVersion(version, nil)
	require.NoError(t, err)
	assert.False(t, qb.Dialect().SupportsOffsetFetch)
}
