package builder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/sqlbricks/go-mssql/database/types"
)

// paramPrefix is the name stem for auto-generated placeholders.
const paramPrefix = ":qp"

// Params maps placeholder names to their bound values. A single map may
// accumulate across several generation calls; numbering keys off the current
// map size, so sharing one map keeps placeholders collision-free.
type Params map[string]any

// bindParam allocates the next placeholder name for value and records it.
// Allocation is deterministic: the N-th binding into a map of size N-1 is
// always ":qpN-1".
func bindParam(params Params, value any) string {
	name := paramPrefix + strconv.Itoa(len(params))
	params[name] = value
	return name
}

// bindSqlizer renders a squirrel condition and rebinds its positional "?"
// placeholders as named ":qpN" parameters accumulated into params. This is
// the bridge between the generic condition builder and the named-parameter
// statements this dialect executes.
func bindSqlizer(cond squirrel.Sqlizer, params Params) (string, error) {
	fragment, args, err := cond.ToSql()
	if err != nil {
		return "", fmt.Errorf("render condition: %w", err)
	}
	var b strings.Builder
	argIdx := 0
	for i := 0; i < len(fragment); i++ {
		if fragment[i] != '?' {
			b.WriteByte(fragment[i])
			continue
		}
		if argIdx >= len(args) {
			return "", fmt.Errorf("%w: %q", types.ErrParamMismatch, fragment)
		}
		b.WriteString(bindParam(params, args[argIdx]))
		argIdx++
	}
	if argIdx != len(args) {
		return "", fmt.Errorf("%w: %q", types.ErrParamMismatch, fragment)
	}
	return b.String(), nil
}
