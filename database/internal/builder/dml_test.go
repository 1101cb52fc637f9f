package builder

import (
	"errors"
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/require"

	"github.com/sqlbricks/go-mssql/database/types"
)

func TestInsertPlain(t *testing.T) {
	qb := newSchemalessBuilder()

	sql, params, err := qb.Insert("customer", map[string]any{"email": "a@b.com"}, nil)
	require.NoError(t, err)

	if sql != "INSERT INTO [customer] ([email]) VALUES (:qp0)" {
		t.Fatalf("unexpected SQL: %s", sql)
	}
	if params[":qp0"] != "a@b.com" {
		t.Fatalf("unexpected params: %v", params)
	}
}

func TestInsertDefaultValues(t *testing.T) {
	qb := newSchemalessBuilder()

	sql, _, err := qb.Insert("order_log", map[string]any{}, nil)
	require.NoError(t, err)
	if sql != "INSERT INTO [order_log] DEFAULT VALUES" {
		t.Fatalf("unexpected SQL: %s", sql)
	}
}

func TestInsertSplicesExpressions(t *testing.T) {
	qb := newSchemalessBuilder()

	sql, params, err := qb.Insert("customer", map[string]any{
		"created_at": types.Expr("GETDATE()"),
		"email":      "a@b.com",
	}, nil)
	require.NoError(t, err)

	if sql != "INSERT INTO [customer] ([created_at], [email]) VALUES (GETDATE(), :qp0)" {
		t.Fatalf("unexpected SQL: %s", sql)
	}
	if len(params) != 1 {
		t.Fatalf("expression must not be bound: %v", params)
	}
}

func TestInsertFromSelect(t *testing.T) {
	qb := newSchemalessBuilder()

	src := SelectSource{
		Columns: []string{"email", "name"},
		Query:   squirrel.Select("[email]", "[name]").From("[archive]").Where(squirrel.Eq{"[active]": 1}),
	}
	sql, params, err := qb.Insert("customer", src, nil)
	require.NoError(t, err)

	want := "INSERT INTO [customer] ([email], [name]) SELECT [email], [name] FROM [archive] WHERE [active] = :qp0"
	if sql != want {
		t.Fatalf("unexpected SQL:\n got %s\nwant %s", sql, want)
	}
	if params[":qp0"] != 1 {
		t.Fatalf("unexpected params: %v", params)
	}
}

func TestInsertCapturesGeneratedValues(t *testing.T) {
	qb := newTestBuilder()

	sql, params, err := qb.Insert("customer", map[string]any{"email": "a@b.com"}, nil)
	require.NoError(t, err)

	want := "SET NOCOUNT ON;" +
		"DECLARE @temporary_inserted TABLE ([id] int NOT NULL, [email] varchar(MAX) NOT NULL, [name] nvarchar(MAX) NULL);" +
		"INSERT INTO [customer] ([email]) OUTPUT INSERTED.* INTO @temporary_inserted VALUES (:qp0);" +
		"SELECT * FROM @temporary_inserted;"
	if sql != want {
		t.Fatalf("unexpected SQL:\n got %s\nwant %s", sql, want)
	}
	if params[":qp0"] != "a@b.com" {
		t.Fatalf("unexpected params: %v", params)
	}
}

func TestInsertSkipsCaptureWhenOutputUnsupported(t *testing.T) {
	dialect := DefaultDialect()
	dialect.SupportsOutputClause = false
	qb := NewQueryBuilder(dialect, testSchema())

	sql, _, err := qb.Insert("customer", map[string]any{"email": "a@b.com"}, nil)
	require.NoError(t, err)
	if sql != "INSERT INTO [customer] ([email]) VALUES (:qp0)" {
		t.Fatalf("unexpected SQL: %s", sql)
	}
}

func TestInsertUnknownTableEmitsPlainInsert(t *testing.T) {
	qb := newTestBuilder()

	sql, _, err := qb.Insert("audit_trail", map[string]any{"note": "x"}, nil)
	require.NoError(t, err)
	if sql != "INSERT INTO [audit_trail] ([note]) VALUES (:qp0)" {
		t.Fatalf("unexpected SQL: %s", sql)
	}
}

func TestInsertRejectsEmptyTable(t *testing.T) {
	qb := newTestBuilder()

	_, _, err := qb.Insert("", map[string]any{"a": 1}, nil)
	if !errors.Is(err, types.ErrEmptyTableName) {
		t.Fatalf("expected ErrEmptyTableName, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	qb := newTestBuilder()

	sql, params, err := qb.Update("customer", map[string]any{
		"name":   "alice",
		"status": types.Expr("[status] + 1"),
	}, squirrel.Eq{"[id]": 7}, nil)
	require.NoError(t, err)

	want := "UPDATE [customer] SET [name]=:qp0, [status]=[status] + 1 WHERE [id] = :qp1"
	if sql != want {
		t.Fatalf("unexpected SQL:\n got %s\nwant %s", sql, want)
	}
	if params[":qp0"] != "alice" || params[":qp1"] != 7 {
		t.Fatalf("unexpected params: %v", params)
	}
}

func TestUpdateWithoutCondition(t *testing.T) {
	qb := newTestBuilder()

	sql, _, err := qb.Update("customer", map[string]any{"name": "x"}, nil, nil)
	require.NoError(t, err)
	if sql != "UPDATE [customer] SET [name]=:qp0" {
		t.Fatalf("unexpected SQL: %s", sql)
	}
}

func TestDelete(t *testing.T) {
	qb := newTestBuilder()

	sql, params, err := qb.Delete("customer", squirrel.Eq{"[id]": 3}, nil)
	require.NoError(t, err)

	if sql != "DELETE FROM [customer] WHERE [id] = :qp0" {
		t.Fatalf("unexpected SQL: %s", sql)
	}
	if params[":qp0"] != 3 {
		t.Fatalf("unexpected params: %v", params)
	}

	sql, _, err = qb.Delete("customer", nil, nil)
	require.NoError(t, err)
	if sql != "DELETE FROM [customer]" {
		t.Fatalf("unexpected SQL: %s", sql)
	}
}

func TestResetSequence(t *testing.T) {
	qb := newTestBuilder()

	sql, err := qb.ResetSequence("customer", 7)
	require.NoError(t, err)
	if sql != "DBCC CHECKIDENT ('[customer]', RESEED, 7)" {
		t.Fatalf("unexpected SQL: %s", sql)
	}

	sql, err = qb.ResetSequence("customer", nil)
	require.NoError(t, err)
	want := "DBCC CHECKIDENT ('[customer]', RESEED, (SELECT COALESCE(MAX([id]),0)+1 FROM [customer]))"
	if sql != want {
		t.Fatalf("unexpected SQL:\n got %s\nwant %s", sql, want)
	}
}

func TestResetSequenceErrors(t *testing.T) {
	qb := newTestBuilder()

	_, err := qb.ResetSequence("order_log", nil)
	if !errors.Is(err, types.ErrNoSequence) {
		t.Fatalf("expected ErrNoSequence, got %v", err)
	}

	_, err = qb.ResetSequence("missing", nil)
	if !errors.Is(err, types.ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}

	_, err = newSchemalessBuilder().ResetSequence("customer", nil)
	if !errors.Is(err, types.ErrNoSchemaAccessor) {
		t.Fatalf("expected ErrNoSchemaAccessor, got %v", err)
	}
}
