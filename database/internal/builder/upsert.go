package builder

import (
	"strings"

	"github.com/sqlbricks/go-mssql/database/types"
)

type conflictMode int

const (
	conflictUpdateAll conflictMode = iota
	conflictSkip
	conflictExplicit
)

// ConflictUpdate selects what happens to an upsert's matched branch. It has
// exactly three cases: mirror every non-key insert column from the incoming
// row, skip the row entirely, or update an explicit column map.
type ConflictUpdate struct {
	mode    conflictMode
	columns map[string]any
}

// UpdateAll mirrors every insert column that is not part of a conflict
// target into the matched branch.
func UpdateAll() ConflictUpdate {
	return ConflictUpdate{mode: conflictUpdateAll}
}

// SkipOnConflict leaves matched rows untouched; only the not-matched branch
// inserts.
func SkipOnConflict() ConflictUpdate {
	return ConflictUpdate{mode: conflictSkip}
}

// UpdateColumns updates only the listed columns on the matched branch.
// Values may be plain (bound) or types.Expression (spliced); unlisted insert
// columns are still inserted on the not-matched branch.
func UpdateColumns(columns map[string]any) ConflictUpdate {
	return ConflictUpdate{mode: conflictExplicit, columns: columns}
}

// upsertPlan is the transient column resolution for one upsert call.
type upsertPlan struct {
	constraints []types.UniqueConstraint
	uniqueNames []string // quoted
	insertNames []string // quoted
	updateNames []string // quoted, insertNames minus uniqueNames
}

// Upsert generates a MERGE statement that inserts the row or updates an
// existing one when any applicable unique key conflicts. The WITH (HOLDLOCK)
// hint is mandatory: without it two concurrent MERGEs carrying the same key
// can both take the not-matched branch and violate uniqueness.
//
// When none of the table's unique constraints is fully covered by the insert
// columns there is no conflict target, and the call degrades to a plain
// Insert.
func (qb *QueryBuilder) Upsert(table string, insertColumns any, update ConflictUpdate, params Params) (string, Params, error) {
	if params == nil {
		params = Params{}
	}
	ts, err := qb.tableSchema(table)
	if err != nil {
		return "", params, err
	}

	plan := qb.planUpsert(ts, rawInsertNames(insertColumns))
	if len(plan.constraints) == 0 {
		return qb.Insert(table, insertColumns, params)
	}

	quotedTable := qb.quoter.QuoteTableName(table)
	on := qb.buildMatchCondition(quotedTable, plan.constraints)

	_, placeholders, values, err := qb.prepareInsertValues(insertColumns, params)
	if err != nil {
		return "", params, err
	}
	using := values
	if len(placeholders) > 0 {
		using = "VALUES (" + strings.Join(placeholders, ", ") + ")"
	}

	var b strings.Builder
	b.WriteString("MERGE " + quotedTable + " WITH (HOLDLOCK) USING (" + using + ")")
	b.WriteString(" AS [EXCLUDED] (" + strings.Join(plan.insertNames, ", ") + ")")
	b.WriteString(" ON " + on)

	insertValues := make([]string, len(plan.insertNames))
	for i, name := range plan.insertNames {
		insertValues[i] = "[EXCLUDED]." + name
	}
	insertSQL := "INSERT (" + strings.Join(plan.insertNames, ", ") + ") VALUES (" + strings.Join(insertValues, ", ") + ")"

	switch update.mode {
	case conflictSkip:
		b.WriteString(" WHEN NOT MATCHED THEN " + insertSQL + ";")
		return b.String(), params, nil
	case conflictUpdateAll:
		if len(plan.updateNames) == 0 {
			// Every insert column is part of a conflict target, so a
			// matched row has nothing left to update.
			b.WriteString(" WHEN NOT MATCHED THEN " + insertSQL + ";")
			return b.String(), params, nil
		}
		sets := make([]string, len(plan.updateNames))
		for i, name := range plan.updateNames {
			sets[i] = name + "=[EXCLUDED]." + name
		}
		b.WriteString(" WHEN MATCHED THEN UPDATE SET " + strings.Join(sets, ", "))
		b.WriteString(" WHEN NOT MATCHED THEN " + insertSQL + ";")
		return b.String(), params, nil
	default:
		if len(update.columns) == 0 {
			// An empty explicit set leaves matched rows untouched,
			// same as the skip mode.
			b.WriteString(" WHEN NOT MATCHED THEN " + insertSQL + ";")
			return b.String(), params, nil
		}
		sets := qb.prepareUpdateSets(update.columns, params)
		b.WriteString(" WHEN MATCHED THEN UPDATE SET " + strings.Join(sets, ", "))
		b.WriteString(" WHEN NOT MATCHED THEN " + insertSQL + ";")
		return b.String(), params, nil
	}
}

// planUpsert filters the table's unique constraints (primary key included)
// down to those fully covered by the insert columns and derives the quoted
// name sets the MERGE clauses are built from.
func (qb *QueryBuilder) planUpsert(ts *types.TableSchema, insertNames []string) upsertPlan {
	candidates := make([]types.UniqueConstraint, 0, len(ts.Uniques)+1)
	if len(ts.PrimaryKey) > 0 {
		candidates = append(candidates, types.UniqueConstraint{Name: "PRIMARY KEY", Columns: ts.PrimaryKey})
	}
	candidates = append(candidates, ts.Uniques...)

	var plan upsertPlan
	for _, c := range candidates {
		if len(c.Columns) == 0 {
			continue
		}
		covered := true
		for _, col := range c.Columns {
			if !contains(insertNames, col) {
				covered = false
				break
			}
		}
		if !covered {
			continue
		}
		plan.constraints = append(plan.constraints, c)
		for _, col := range c.Columns {
			quoted := qb.quoter.QuoteColumnName(col)
			if !contains(plan.uniqueNames, quoted) {
				plan.uniqueNames = append(plan.uniqueNames, quoted)
			}
		}
	}

	for _, name := range insertNames {
		quoted := qb.quoter.QuoteColumnName(name)
		plan.insertNames = append(plan.insertNames, quoted)
		if !contains(plan.uniqueNames, quoted) {
			plan.updateNames = append(plan.updateNames, quoted)
		}
	}
	return plan
}

// buildMatchCondition renders the ON clause as a disjunction over the
// matched constraints: a row conflicts when ANY applicable unique key
// matches, not just the primary key.
func (qb *QueryBuilder) buildMatchCondition(quotedTable string, constraints []types.UniqueConstraint) string {
	terms := make([]string, len(constraints))
	for i, c := range constraints {
		eqs := make([]string, len(c.Columns))
		for j, col := range c.Columns {
			quoted := qb.quoter.QuoteColumnName(col)
			eqs[j] = quotedTable + "." + quoted + "=[EXCLUDED]." + quoted
		}
		term := strings.Join(eqs, " AND ")
		if len(constraints) > 1 {
			term = "(" + term + ")"
		}
		terms[i] = term
	}
	return "(" + strings.Join(terms, " OR ") + ")"
}

// rawInsertNames extracts the unquoted insert column names for constraint
// matching.
func rawInsertNames(columns any) []string {
	switch cols := columns.(type) {
	case map[string]any:
		return sortedKeys(cols)
	case SelectSource:
		return cols.Columns
	default:
		return nil
	}
}
