//revive:disable-next-line:var-naming // Package name "types" avoids circular imports.
package types

import "strings"

// Expression represents a raw SQL fragment that is spliced into a generated
// statement verbatim instead of being bound as a parameter. It is the escape
// hatch for values like "GETDATE()" or "[counter] + 1" that must reach the
// engine as text.
//
// SECURITY WARNING: expressions are NOT escaped or sanitized. Never
// interpolate user input into an expression; only static SQL or carefully
// validated values belong here. Deferred quoting macros ({{table}}, [[col]])
// are honored inside expressions.
type Expression struct {
	// SQL is the raw fragment.
	SQL string
}

// Expr creates a raw SQL expression.
// Panics if sql is blank (fail fast).
//
// Example:
//
//	qb.Update("item", map[string]any{"counter": types.Expr("[[counter]] + 1")}, cond, params)
func Expr(sql string) Expression {
	if strings.TrimSpace(sql) == "" {
		panic("expression SQL cannot be empty")
	}
	return Expression{SQL: sql}
}
