package builder

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqlbricks/go-mssql/database/types"
)

func TestAddCommentOnTable(t *testing.T) {
	qb := newTestBuilder()

	sql, err := qb.AddCommentOnTable("customer", "Customer records")
	require.NoError(t, err)

	args := "@name = N'MS_description', @value = N'Customer records'" +
		", @level0type = N'SCHEMA', @level0name = SCHEMA_NAME()" +
		", @level1type = N'TABLE', @level1name = N'customer'"
	want := "IF NOT EXISTS (SELECT 1 FROM fn_listextendedproperty(N'MS_description'" +
		", 'SCHEMA', SCHEMA_NAME(), 'TABLE', N'customer', DEFAULT, DEFAULT))\n" +
		"    EXEC sys.sp_addextendedproperty " + args + "\n" +
		"ELSE\n" +
		"    EXEC sys.sp_updateextendedproperty " + args
	if sql != want {
		t.Fatalf("unexpected SQL:\n got %s\nwant %s", sql, want)
	}
}

func TestAddCommentOnColumn(t *testing.T) {
	qb := newTestBuilder()

	sql, err := qb.AddCommentOnColumn("customer", "email", "Primary contact")
	require.NoError(t, err)

	if !strings.Contains(sql, "'TABLE', N'customer', 'COLUMN', N'email'") {
		t.Fatalf("column probe missing: %s", sql)
	}
	if !strings.Contains(sql, "@level2type = N'COLUMN', @level2name = N'email'") {
		t.Fatalf("column level argument missing: %s", sql)
	}
	if !strings.Contains(sql, "@value = N'Primary contact'") {
		t.Fatalf("comment value missing: %s", sql)
	}
}

func TestAddCommentEscapesValue(t *testing.T) {
	qb := newTestBuilder()

	sql, err := qb.AddCommentOnTable("customer", "it's quoted")
	require.NoError(t, err)
	if !strings.Contains(sql, "@value = N'it''s quoted'") {
		t.Fatalf("value not escaped: %s", sql)
	}
}

func TestDropComment(t *testing.T) {
	qb := newTestBuilder()

	sql, err := qb.DropCommentFromColumn("customer", "email")
	require.NoError(t, err)

	if !strings.HasPrefix(sql, "IF EXISTS (SELECT 1 FROM fn_listextendedproperty(") {
		t.Fatalf("existence guard missing: %s", sql)
	}
	if !strings.Contains(sql, "EXEC sys.sp_dropextendedproperty @name = N'MS_description'") {
		t.Fatalf("drop call missing: %s", sql)
	}
	if strings.Contains(sql, "@value") {
		t.Fatalf("drop must not carry a value: %s", sql)
	}
}

func TestCommentRequiresKnownTable(t *testing.T) {
	_, err := newTestBuilder().AddCommentOnTable("missing", "x")
	if !errors.Is(err, types.ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}

	_, err = newSchemalessBuilder().DropCommentFromTable("customer")
	if !errors.Is(err, types.ErrNoSchemaAccessor) {
		t.Fatalf("expected ErrNoSchemaAccessor, got %v", err)
	}
}

func TestDefaultValueConstraints(t *testing.T) {
	qb := newTestBuilder()

	sql := qb.AddDefaultValue("DF_customer_status", "customer", "status", "active")
	want := "ALTER TABLE [customer] ADD CONSTRAINT [DF_customer_status] DEFAULT 'active' FOR [status]"
	if sql != want {
		t.Fatalf("unexpected SQL:\n got %s\nwant %s", sql, want)
	}

	sql = qb.DropDefaultValue("DF_customer_status", "customer")
	if sql != "ALTER TABLE [customer] DROP CONSTRAINT [DF_customer_status]" {
		t.Fatalf("unexpected SQL: %s", sql)
	}
}

func TestRename(t *testing.T) {
	qb := newTestBuilder()

	if sql := qb.RenameTable("customer", "client"); sql != "sp_rename [customer], [client]" {
		t.Fatalf("unexpected SQL: %s", sql)
	}
	want := "sp_rename '[customer].[email]', [contact_email], 'COLUMN'"
	if sql := qb.RenameColumn("customer", "email", "contact_email"); sql != want {
		t.Fatalf("unexpected SQL: %s", sql)
	}
}

func TestAlterColumn(t *testing.T) {
	qb := newTestBuilder()

	sql := qb.AlterColumn("customer", "name", "string(64)")
	if sql != "ALTER TABLE [customer] ALTER COLUMN [name] nvarchar(64)" {
		t.Fatalf("unexpected SQL: %s", sql)
	}
}

func TestCheckIntegrity(t *testing.T) {
	qb := newTestBuilder()

	sql, err := qb.CheckIntegrity(true, "dbo")
	require.NoError(t, err)
	want := "ALTER TABLE [customer] CHECK CONSTRAINT ALL; ALTER TABLE [order_log] CHECK CONSTRAINT ALL"
	if sql != want {
		t.Fatalf("unexpected SQL:\n got %s\nwant %s", sql, want)
	}

	sql, err = qb.CheckIntegrity(false, "dbo")
	require.NoError(t, err)
	if !strings.Contains(sql, "NOCHECK CONSTRAINT ALL") {
		t.Fatalf("disable must use NOCHECK: %s", sql)
	}

	_, err = qb.CheckIntegrity(true, "empty")
	require.Error(t, err)
}
