package builder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// sqlMacroPattern matches the two deferred quoting macros embeddable in raw
// SQL fragments: {{%?name%?}} for table references (with "%" replaced by the
// configured table prefix) and [[name]] for column references.
var sqlMacroPattern = regexp.MustCompile(`\{\{(%?[\w. -]+%?)\}\}|\[\[([\w. -]+)\]\]`)

// valueEscaper escapes the control characters SQL Server string literals
// cannot carry verbatim. Quote doubling happens separately first.
var valueEscaper = strings.NewReplacer(
	"\x00", `\0`,
	`\`, `\\`,
	"\n", `\n`,
	"\r", `\r`,
	"\x1a", `\Z`,
)

// Quoter performs identifier and literal quoting for the bracket-quoted
// T-SQL dialect. Quoting is total, side-effect free, and idempotent:
// quoting an already-quoted identifier is a fixed point. A Quoter is
// immutable after construction and safe for unlimited concurrent use.
type Quoter struct {
	column      QuotePair
	table       QuotePair
	tablePrefix string

	fullyQuotedColumn *regexp.Regexp
}

// NewQuoter creates a quoter with the given quote pairs and table prefix.
func NewQuoter(column, table QuotePair, tablePrefix string) *Quoter {
	return &Quoter{
		column:      column,
		table:       table,
		tablePrefix: tablePrefix,
		fullyQuotedColumn: regexp.MustCompile(
			"^" + regexp.QuoteMeta(column.Open) + ".*" + regexp.QuoteMeta(column.Close) + "$",
		),
	}
}

// TablePrefix returns the prefix substituted for "%" in table macros.
func (q *Quoter) TablePrefix() string {
	return q.tablePrefix
}

// QuoteColumnName quotes a column name for embedding in SQL, leaving
// already-quoted names, raw expressions (anything containing "("), and
// escaped "[[...]]" runs untouched. A schema or table qualifier before the
// last dot is quoted as a table name.
func (q *Quoter) QuoteColumnName(name string) string {
	if q.fullyQuotedColumn.MatchString(name) {
		return name
	}
	if strings.Contains(name, "(") || strings.Contains(name, "[[") {
		// Raw expression; the caller keeps quoting responsibility.
		return name
	}
	prefix := ""
	if pos := strings.LastIndex(name, "."); pos != -1 {
		prefix = q.QuoteTableName(name[:pos]) + "."
		name = name[pos+1:]
	}
	if strings.Contains(name, "{{") {
		// Deferred macro, resolved later by QuoteSQL.
		return prefix + name
	}
	return prefix + q.quoteSimpleColumnName(name)
}

func (q *Quoter) quoteSimpleColumnName(name string) string {
	if name == "*" || strings.HasPrefix(name, q.column.Open) {
		return name
	}
	return q.column.Open + name + q.column.Close
}

// QuoteTableName quotes a possibly schema-qualified table name. A
// parenthesized sub-expression spanning the whole string and names carrying
// a deferred macro are returned unchanged. Dots inside bracket-delimited
// parts do not split the name.
func (q *Quoter) QuoteTableName(name string) string {
	if strings.HasPrefix(name, "(") && strings.HasSuffix(name, ")") {
		return name
	}
	if strings.Contains(name, "{{") {
		return name
	}
	if !strings.Contains(name, ".") {
		return q.quoteSimpleTableName(name)
	}
	parts := q.tableNameParts(name)
	for i, part := range parts {
		parts[i] = q.quoteSimpleTableName(part)
	}
	return strings.Join(parts, ".")
}

func (q *Quoter) quoteSimpleTableName(name string) string {
	if strings.HasPrefix(name, q.table.Open) {
		return name
	}
	return q.table.Open + name + q.table.Close
}

// tableNameParts splits a dotted table reference into its parts. A
// bracket-delimited run counts as a single part even when it contains a
// literal dot.
func (q *Quoter) tableNameParts(name string) []string {
	var parts []string
	for name != "" {
		if strings.HasPrefix(name, q.table.Open) {
			if end := strings.Index(name, q.table.Close); end != -1 {
				parts = append(parts, name[:end+len(q.table.Close)])
				name = strings.TrimPrefix(name[end+len(q.table.Close):], ".")
				continue
			}
		}
		if dot := strings.Index(name, "."); dot != -1 {
			parts = append(parts, name[:dot])
			name = name[dot+1:]
			continue
		}
		parts = append(parts, name)
		name = ""
	}
	return parts
}

// QuoteSQL resolves the deferred quoting macros in a raw SQL string:
// {{%table%}} becomes the quoted, prefix-substituted table reference and
// [[column]] the quoted column reference. All other text passes through
// untouched, which lets callers embed quoting directives in hand-written
// fragments without this package parsing full SQL.
func (q *Quoter) QuoteSQL(sql string) string {
	return sqlMacroPattern.ReplaceAllStringFunc(sql, func(match string) string {
		if strings.HasPrefix(match, "[[") {
			return q.QuoteColumnName(match[2 : len(match)-2])
		}
		name := strings.ReplaceAll(match[2:len(match)-2], "%", q.tablePrefix)
		return q.QuoteTableName(name)
	})
}

// QuoteValue renders a Go value as a SQL literal. Strings are escaped by
// doubling single quotes and backslash-escaping NUL, LF, CR, backslash and
// SUB, then wrapped in single quotes; this mirrors the escaping the native
// driver applies. Booleans map to the bit literals 1 and 0.
func (q *Quoter) QuoteValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + valueEscaper.Replace(strings.ReplaceAll(v, "'", "''")) + "'"
	case bool:
		if v {
			return "1"
		}
		return "0"
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
