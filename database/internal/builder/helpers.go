package builder

import (
	"fmt"
	"sort"

	"github.com/sqlbricks/go-mssql/database/types"
)

// sortedKeys returns a deterministically ordered slice of keys from the
// provided map. Sorting keeps generated SQL stable across calls, which
// matters for statement caches and test assertions alike.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func tableNotFound(table string) error {
	return fmt.Errorf("%w: %s", types.ErrTableNotFound, table)
}

// contains reports whether needle is an element of haystack.
func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
