package tracking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "unbounded", TruncateString("unbounded", 0))
	assert.Equal(t, "abc", TruncateString("abcdef", 3))
	assert.Equal(t, "ab...", TruncateString("abcdefgh", 5))
	// Runes, not bytes
	assert.Equal(t, "héllo w...", TruncateString("héllo wörld", 10))
}

func TestSanitizeArgs(t *testing.T) {
	assert.Nil(t, SanitizeArgs(nil, 10))

	out := SanitizeArgs([]any{"a very long string value", []byte{1, 2, 3}, 42}, 10)
	assert.Equal(t, "a very ...", out[0])
	assert.Equal(t, "<bytes len=3>", out[1])
	assert.Equal(t, "42", out[2])
}

func TestExtractDBOperation(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{"SELECT * FROM [customer]", "select"},
		{"INSERT INTO [customer] DEFAULT VALUES", "insert"},
		{"MERGE [customer] WITH (HOLDLOCK) USING ...", "merge"},
		{"SET NOCOUNT ON;DECLARE @temporary_inserted TABLE ...", "insert"},
		{"UPDATE [customer] SET [name]=:qp0", "update"},
		{"DBCC CHECKIDENT ('[customer]', RESEED, 1)", "dbcc"},
		{"sp_rename [a], [b]", "sp_rename"},
		{"PREPARE: SELECT 1", "prepare"},
		{"TX_PREPARE: SELECT", "prepare"},
		{"STMT_EXEC: DELETE FROM [t]", "execute"},
		{"BEGIN", "begin"},
		{"TX_COMMIT", "commit"},
		{"TX_ROLLBACK", "rollback"},
		{"", "query"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, extractDBOperation(tc.query), "query: %s", tc.query)
	}
}

func TestExtractTableName(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{"SELECT [id] FROM [customer] WHERE [id] = :qp0", "customer"},
		{"SELECT [id] FROM [dbo].[customer]", "customer"},
		{"SELECT name FROM customer", "customer"},
		{"INSERT INTO [customer] ([email]) VALUES (:qp0)", "customer"},
		{"UPDATE [customer] SET [name]=:qp0", "customer"},
		{"DELETE FROM [customer]", "customer"},
		{"MERGE [customer] WITH (HOLDLOCK) USING (...)", "customer"},
		{"BEGIN", "unknown"},
		{"", "unknown"},
		{"DBCC CHECKIDENT ('[customer]', RESEED, 1)", "unknown"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, extractTableName(tc.query), "query: %s", tc.query)
	}

	batch := "SET NOCOUNT ON;DECLARE @temporary_inserted TABLE ([id] int NOT NULL);" +
		"INSERT INTO [customer] ([email]) OUTPUT INSERTED.* INTO @temporary_inserted VALUES (:qp0);" +
		"SELECT * FROM @temporary_inserted;"
	assert.Equal(t, "customer", extractTableName(batch))
}

func TestExtractDBOperationIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, "select", extractDBOperation("select 1"))
	assert.Equal(t, "merge", extractDBOperation(strings.ToLower("MERGE [t] ...")))
}
