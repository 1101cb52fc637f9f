package builder

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/sqlbricks/go-mssql/database/types"
)

// SelectSource describes a sub-select used as the row source of an insert or
// upsert, paired with the ordered column names it produces. The query's "?"
// placeholders are rebound as named parameters during generation.
type SelectSource struct {
	Columns []string
	Query   squirrel.Sqlizer
}

// sizedCharPattern matches character and binary types carrying an explicit
// size, which the capture-table declaration widens to (MAX) so every
// inserted value fits regardless of the source column's limit.
var sizedCharPattern = regexp.MustCompile(`(?i)^(n?(?:var)?char|(?:var)?binary)\(\d+\)`)

// Insert generates an INSERT statement for the table. columns is either a
// name-to-value map or a SelectSource; an empty map produces the DEFAULT
// VALUES form. When the dialect supports the OUTPUT clause and the table
// resolves through the schema accessor, the statement is wrapped to capture
// the inserted row (identity and default values included) in a table
// variable and return it, which is the engine's only single-round-trip
// equivalent of a RETURNING clause.
func (qb *QueryBuilder) Insert(table string, columns any, params Params) (string, Params, error) {
	if table == "" {
		return "", params, types.ErrEmptyTableName
	}
	if params == nil {
		params = Params{}
	}
	names, placeholders, values, err := qb.prepareInsertValues(columns, params)
	if err != nil {
		return "", params, err
	}

	sql := "INSERT INTO " + qb.quoter.QuoteTableName(table)
	if len(names) > 0 {
		sql += " (" + strings.Join(names, ", ") + ")"
	}

	if qb.dialect.SupportsOutputClause && qb.schema != nil {
		if ts := qb.schema.TableSchema(table); ts != nil && len(ts.Columns) > 0 {
			return qb.wrapReturningInsert(ts, sql, placeholders, values), params, nil
		}
	}

	return sql + insertTail(placeholders, values), params, nil
}

// insertTail renders the row-source portion of an INSERT.
func insertTail(placeholders []string, values string) string {
	switch {
	case len(placeholders) > 0:
		return " VALUES (" + strings.Join(placeholders, ", ") + ")"
	case values != "":
		return " " + values
	default:
		return " DEFAULT VALUES"
	}
}

// wrapReturningInsert redirects the INSERT's OUTPUT into a table variable
// shaped like the target table and appends a SELECT over it. NOCOUNT is set
// so row-count chatter does not precede the result set.
func (qb *QueryBuilder) wrapReturningInsert(ts *types.TableSchema, head string, placeholders []string, values string) string {
	decls := make([]string, 0, len(ts.Columns))
	for _, col := range ts.Columns {
		decl := qb.quoter.QuoteColumnName(col.Name) + " " + captureColumnType(col.DBType)
		if col.AllowNull {
			decl += " NULL"
		} else {
			decl += " NOT NULL"
		}
		decls = append(decls, decl)
	}

	var b strings.Builder
	b.WriteString("SET NOCOUNT ON;")
	b.WriteString("DECLARE @temporary_inserted TABLE (" + strings.Join(decls, ", ") + ");")
	b.WriteString(head + " OUTPUT INSERTED.* INTO @temporary_inserted" + insertTail(placeholders, values) + ";")
	b.WriteString("SELECT * FROM @temporary_inserted;")
	return b.String()
}

// captureColumnType widens sized character and binary types to (MAX) for the
// capture-table declaration.
func captureColumnType(dbType string) string {
	return sizedCharPattern.ReplaceAllString(dbType, "$1(MAX)")
}

// prepareInsertValues resolves the insert columns into quoted names, value
// placeholders, and (for the sub-select form) the raw row-source text.
// Expression values are spliced verbatim; everything else is bound.
func (qb *QueryBuilder) prepareInsertValues(columns any, params Params) (names, placeholders []string, values string, err error) {
	switch cols := columns.(type) {
	case nil:
		return nil, nil, "", nil
	case map[string]any:
		for _, name := range sortedKeys(cols) {
			names = append(names, qb.quoter.QuoteColumnName(name))
			switch v := cols[name].(type) {
			case types.Expression:
				placeholders = append(placeholders, qb.quoter.QuoteSQL(v.SQL))
			default:
				placeholders = append(placeholders, bindParam(params, v))
			}
		}
		return names, placeholders, "", nil
	case SelectSource:
		for _, name := range cols.Columns {
			names = append(names, qb.quoter.QuoteColumnName(name))
		}
		values, err = bindSqlizer(cols.Query, params)
		if err != nil {
			return nil, nil, "", err
		}
		return names, nil, values, nil
	default:
		return nil, nil, "", fmt.Errorf("%w: unsupported insert source %T", types.ErrNotSupported, columns)
	}
}

// prepareUpdateSets resolves an update column map into SET fragments,
// binding plain values and splicing expressions.
func (qb *QueryBuilder) prepareUpdateSets(columns map[string]any, params Params) []string {
	sets := make([]string, 0, len(columns))
	for _, name := range sortedKeys(columns) {
		lhs := qb.quoter.QuoteColumnName(name)
		switch v := columns[name].(type) {
		case types.Expression:
			sets = append(sets, lhs+"="+qb.quoter.QuoteSQL(v.SQL))
		default:
			sets = append(sets, lhs+"="+bindParam(params, v))
		}
	}
	return sets
}

// Update generates an UPDATE statement. condition may be nil for an
// unconditional update; its placeholders are rebound as named parameters
// after the SET bindings, keeping numbering sequential.
func (qb *QueryBuilder) Update(table string, columns map[string]any, condition squirrel.Sqlizer, params Params) (string, Params, error) {
	if table == "" {
		return "", params, types.ErrEmptyTableName
	}
	if params == nil {
		params = Params{}
	}
	sets := qb.prepareUpdateSets(columns, params)
	sql := "UPDATE " + qb.quoter.QuoteTableName(table) + " SET " + strings.Join(sets, ", ")
	if condition != nil {
		fragment, err := bindSqlizer(condition, params)
		if err != nil {
			return "", params, err
		}
		if fragment != "" {
			sql += " WHERE " + fragment
		}
	}
	return sql, params, nil
}

// Delete generates a DELETE statement. condition may be nil to delete all
// rows.
func (qb *QueryBuilder) Delete(table string, condition squirrel.Sqlizer, params Params) (string, Params, error) {
	if table == "" {
		return "", params, types.ErrEmptyTableName
	}
	if params == nil {
		params = Params{}
	}
	sql := "DELETE FROM " + qb.quoter.QuoteTableName(table)
	if condition != nil {
		fragment, err := bindSqlizer(condition, params)
		if err != nil {
			return "", params, err
		}
		if fragment != "" {
			sql += " WHERE " + fragment
		}
	}
	return sql, params, nil
}

// ResetSequence generates a DBCC CHECKIDENT reseed for the table's identity
// column. A nil value reseeds to one past the current maximum primary key.
// Targeting an unknown table or a table without an identity sequence is a
// caller mistake and surfaces as a typed error.
func (qb *QueryBuilder) ResetSequence(table string, value any) (string, error) {
	ts, err := qb.tableSchema(table)
	if err != nil {
		return "", err
	}
	if ts.SequenceName == "" {
		return "", fmt.Errorf("%w: %s", types.ErrNoSequence, table)
	}

	quoted := qb.quoter.QuoteTableName(table)
	var reseed string
	if value == nil {
		if len(ts.PrimaryKey) == 0 {
			return "", fmt.Errorf("%w: %s", types.ErrNoPrimaryKey, table)
		}
		key := qb.quoter.QuoteColumnName(ts.PrimaryKey[0])
		reseed = "(SELECT COALESCE(MAX(" + key + "),0)+1 FROM " + quoted + ")"
	} else {
		reseed = fmt.Sprintf("%v", value)
	}
	return "DBCC CHECKIDENT ('" + quoted + "', RESEED, " + reseed + ")", nil
}
