package builder

import (
	"regexp"
	"strconv"
	"strings"
)

// Order is one ORDER BY entry. Column may be a plain name (quoted) or a raw
// expression (passed through by the quoting rules).
type Order struct {
	Column string
	Desc   bool
}

// neutralOrderBy satisfies the grammar when OFFSET/FETCH or ROW_NUMBER()
// require an ORDER BY the caller did not supply.
const neutralOrderBy = "ORDER BY (SELECT NULL)"

// leadingSelectPattern anchors the statement's leading SELECT keyword,
// tolerating whitespace and opening parentheses, for the ROW_NUMBER rewrite.
var (
	leadingSelectPattern = regexp.MustCompile(`(?i)^([\s(]*SELECT)(\s+DISTINCT)?`)
	topClausePattern     = regexp.MustCompile(`(?i)^\s*TOP\s*\(`)
)

// BuildOrderByAndLimit appends ordering and pagination to a finished SELECT.
// A limit of zero or less means unlimited; an offset of zero or less means
// no offset. On engines with native OFFSET/FETCH (2012+) the clause pair is
// appended directly; older engines get a ROW_NUMBER() emulation.
func (qb *QueryBuilder) BuildOrderByAndLimit(sql string, orderBy []Order, limit, offset int) string {
	if limit <= 0 && offset <= 0 {
		if ob := qb.buildOrderBy(orderBy); ob != "" {
			sql += " " + ob
		}
		return sql
	}
	if qb.dialect.SupportsOffsetFetch {
		return qb.newBuildOrderByAndLimit(sql, orderBy, limit, offset)
	}
	return qb.oldBuildOrderByAndLimit(sql, orderBy, limit, offset)
}

// buildOrderBy renders the ORDER BY clause, empty when no entries are given.
func (qb *QueryBuilder) buildOrderBy(orderBy []Order) string {
	if len(orderBy) == 0 {
		return ""
	}
	cols := make([]string, len(orderBy))
	for i, o := range orderBy {
		cols[i] = qb.quoter.QuoteColumnName(o.Column)
		if o.Desc {
			cols[i] += " DESC"
		}
	}
	return "ORDER BY " + strings.Join(cols, ", ")
}

// newBuildOrderByAndLimit uses the native OFFSET/FETCH grammar. The grammar
// mandates an ORDER BY, so a neutral one is substituted when the caller gave
// none, and OFFSET defaults to 0 when only a limit is present.
func (qb *QueryBuilder) newBuildOrderByAndLimit(sql string, orderBy []Order, limit, offset int) string {
	ob := qb.buildOrderBy(orderBy)
	if ob == "" {
		ob = neutralOrderBy
	}
	if offset < 0 {
		offset = 0
	}
	sql += " " + ob + " OFFSET " + strconv.Itoa(offset) + " ROWS"
	if limit > 0 {
		sql += " FETCH NEXT " + strconv.Itoa(limit) + " ROWS ONLY"
	}
	return sql
}

// oldBuildOrderByAndLimit emulates pagination on pre-2012 engines: a
// synthetic rowNum column is injected into the leading SELECT via
// ROW_NUMBER(), the statement is wrapped as a subquery, and the outer query
// applies TOP for the limit and a rowNum filter for the offset. The TOP wrap
// must compose over the inner rewrite; reversing them miscounts rows when
// both a limit and an offset are present.
func (qb *QueryBuilder) oldBuildOrderByAndLimit(sql string, orderBy []Order, limit, offset int) string {
	ob := qb.buildOrderBy(orderBy)
	if ob == "" {
		ob = neutralOrderBy
	}

	inner, ok := injectRowNumber(sql, ob)
	if !ok {
		return sql
	}

	if limit > 0 {
		sql = "SELECT TOP " + strconv.Itoa(limit) + " * FROM (" + inner + ") sub"
	} else {
		sql = "SELECT * FROM (" + inner + ") sub"
	}
	if offset > 0 {
		sql += " WHERE sub.rowNum > " + strconv.Itoa(offset)
	}
	return sql
}

// injectRowNumber rewrites the statement's leading "SELECT [DISTINCT]" to
// prepend a rowNum window column. Statements already carrying TOP(...) are
// left alone; it reports false when no rewrite happened.
func injectRowNumber(sql, orderBy string) (string, bool) {
	loc := leadingSelectPattern.FindStringIndex(sql)
	if loc == nil {
		return sql, false
	}
	if topClausePattern.MatchString(sql[loc[1]:]) {
		return sql, false
	}
	return sql[:loc[1]] + " rowNum = ROW_NUMBER() over (" + orderBy + ")," + sql[loc[1]:], true
}
