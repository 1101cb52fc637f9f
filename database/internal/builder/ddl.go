package builder

import (
	"fmt"
	"strings"

	"github.com/sqlbricks/go-mssql/database/types"
)

// commentProperty is the extended-property name SQL Server tooling uses for
// object descriptions.
const commentProperty = "MS_description"

// commentTarget carries the resolved extended-property coordinates of a
// table or column.
type commentTarget struct {
	schemaName string // SQL literal or SCHEMA_NAME()
	tableName  string // SQL literal
	columnName string // SQL literal, empty for table-level comments
}

// resolveCommentTarget turns a table (and optional column) name into the
// literal coordinates the extended-property procedures expect. The table
// must resolve through the schema accessor; comments on unknown tables are a
// caller mistake, not a generable statement.
func (qb *QueryBuilder) resolveCommentTarget(table, column string) (commentTarget, error) {
	ts, err := qb.tableSchema(table)
	if err != nil {
		return commentTarget{}, err
	}
	target := commentTarget{
		schemaName: "SCHEMA_NAME()",
		tableName:  "N" + qb.quoter.QuoteValue(ts.Name),
	}
	if ts.SchemaName != "" {
		target.schemaName = "N" + qb.quoter.QuoteValue(ts.SchemaName)
	}
	if column != "" {
		target.columnName = "N" + qb.quoter.QuoteValue(column)
	}
	return target, nil
}

// probe renders the fn_listextendedproperty lookup locating an existing
// comment at the target coordinates.
func (t commentTarget) probe() string {
	level2 := "DEFAULT, DEFAULT"
	if t.columnName != "" {
		level2 = "'COLUMN', " + t.columnName
	}
	return "SELECT 1 FROM fn_listextendedproperty(N'" + commentProperty +
		"', 'SCHEMA', " + t.schemaName + ", 'TABLE', " + t.tableName + ", " + level2 + ")"
}

// procArgs renders the procedure arguments shared by the add, update and
// drop extended-property procedures. A non-empty value is inserted between
// the property name and the level arguments.
func (t commentTarget) procArgs(value string) string {
	args := "@name = N'" + commentProperty + "'"
	if value != "" {
		args += ", @value = " + value
	}
	args += ", @level0type = N'SCHEMA', @level0name = " + t.schemaName +
		", @level1type = N'TABLE', @level1name = " + t.tableName
	if t.columnName != "" {
		args += ", @level2type = N'COLUMN', @level2name = " + t.columnName
	}
	return args
}

// buildAddComment generates the idempotent comment upsert: the probe picks
// between sp_addextendedproperty and sp_updateextendedproperty, so the same
// statement works whether or not a comment already exists.
func (qb *QueryBuilder) buildAddComment(comment, table, column string) (string, error) {
	target, err := qb.resolveCommentTarget(table, column)
	if err != nil {
		return "", err
	}
	args := target.procArgs("N" + qb.quoter.QuoteValue(comment))
	return "IF NOT EXISTS (" + target.probe() + ")\n" +
		"    EXEC sys.sp_addextendedproperty " + args + "\n" +
		"ELSE\n" +
		"    EXEC sys.sp_updateextendedproperty " + args, nil
}

// buildDropComment generates the existence-guarded comment removal.
func (qb *QueryBuilder) buildDropComment(table, column string) (string, error) {
	target, err := qb.resolveCommentTarget(table, column)
	if err != nil {
		return "", err
	}
	return "IF EXISTS (" + target.probe() + ")\n" +
		"    EXEC sys.sp_dropextendedproperty " + target.procArgs(""), nil
}

// AddCommentOnTable generates a statement that sets or replaces the table's
// comment.
func (qb *QueryBuilder) AddCommentOnTable(table, comment string) (string, error) {
	return qb.buildAddComment(comment, table, "")
}

// AddCommentOnColumn generates a statement that sets or replaces the
// column's comment.
func (qb *QueryBuilder) AddCommentOnColumn(table, column, comment string) (string, error) {
	return qb.buildAddComment(comment, table, column)
}

// DropCommentFromTable generates a statement that removes the table's
// comment if one exists.
func (qb *QueryBuilder) DropCommentFromTable(table string) (string, error) {
	return qb.buildDropComment(table, "")
}

// DropCommentFromColumn generates a statement that removes the column's
// comment if one exists.
func (qb *QueryBuilder) DropCommentFromColumn(table, column string) (string, error) {
	return qb.buildDropComment(table, column)
}

// AddDefaultValue generates an ALTER TABLE adding a named default
// constraint. No existence probe is emitted; the engine errors on duplicate
// constraint names.
func (qb *QueryBuilder) AddDefaultValue(name, table, column string, value any) string {
	return "ALTER TABLE " + qb.quoter.QuoteTableName(table) +
		" ADD CONSTRAINT " + qb.quoter.QuoteColumnName(name) +
		" DEFAULT " + qb.quoter.QuoteValue(value) +
		" FOR " + qb.quoter.QuoteColumnName(column)
}

// DropDefaultValue generates an ALTER TABLE dropping a named default
// constraint.
func (qb *QueryBuilder) DropDefaultValue(name, table string) string {
	return "ALTER TABLE " + qb.quoter.QuoteTableName(table) +
		" DROP CONSTRAINT " + qb.quoter.QuoteColumnName(name)
}

// RenameTable generates the sp_rename invocation for a table.
func (qb *QueryBuilder) RenameTable(oldName, newName string) string {
	return "sp_rename " + qb.quoter.QuoteTableName(oldName) + ", " + qb.quoter.QuoteTableName(newName)
}

// RenameColumn generates the sp_rename invocation for a column.
func (qb *QueryBuilder) RenameColumn(table, oldName, newName string) string {
	return "sp_rename '" + qb.quoter.QuoteTableName(table) + "." + qb.quoter.QuoteColumnName(oldName) +
		"', " + qb.quoter.QuoteColumnName(newName) + ", 'COLUMN'"
}

// AlterColumn generates an ALTER COLUMN with the abstract type resolved
// through the type map.
func (qb *QueryBuilder) AlterColumn(table, column, abstractType string) string {
	return "ALTER TABLE " + qb.quoter.QuoteTableName(table) +
		" ALTER COLUMN " + qb.quoter.QuoteColumnName(column) +
		" " + ColumnType(abstractType)
}

// CheckIntegrity generates the statements enabling or disabling constraint
// checking for every table of the schema, joined into one batch.
func (qb *QueryBuilder) CheckIntegrity(enable bool, schema string) (string, error) {
	if qb.schema == nil {
		return "", types.ErrNoSchemaAccessor
	}
	verb := "CHECK"
	if !enable {
		verb = "NOCHECK"
	}
	names := qb.schema.TableNames(schema)
	if len(names) == 0 {
		return "", fmt.Errorf("%w: schema %q has no tables", types.ErrTableNotFound, schema)
	}
	stmts := make([]string, len(names))
	for i, name := range names {
		stmts[i] = "ALTER TABLE " + qb.quoter.QuoteTableName(name) + " " + verb + " CONSTRAINT ALL"
	}
	return strings.Join(stmts, "; "), nil
}
