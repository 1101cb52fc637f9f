// Package builder implements T-SQL statement generation for Microsoft SQL
// Server. It covers the grammar corners where the engine diverges from the
// common SQL subset: bracket identifier quoting, MERGE-based upsert,
// OUTPUT-clause inserts, version-dependent pagination, and extended-property
// comments.
//
// All generation is pure string assembly over already-resolved schema
// metadata; nothing in this package touches a connection.
package builder

import (
	"github.com/sqlbricks/go-mssql/database/types"
)

// QuotePair holds the opening and closing identifier quote tokens.
type QuotePair struct {
	Open  string
	Close string
}

// Dialect is the engine configuration a QueryBuilder generates against.
// It is a plain value: construct it once and share it freely.
type Dialect struct {
	// ColumnQuote and TableQuote are the identifier quote pairs.
	ColumnQuote QuotePair
	TableQuote  QuotePair

	// TablePrefix replaces the "%" marker inside {{...}} table macros.
	TablePrefix string

	// SupportsOffsetFetch reports native OFFSET ... FETCH pagination
	// (SQL Server 2012 and later). Older versions fall back to a
	// ROW_NUMBER() emulation.
	SupportsOffsetFetch bool

	// SupportsOutputClause reports OUTPUT INSERTED support
	// (SQL Server 2008 and later), used to capture generated values on
	// insert in a single round trip.
	SupportsOutputClause bool
}

// DefaultDialect returns the configuration for a current SQL Server with
// bracket quoting and no table prefix.
func DefaultDialect() Dialect {
	return Dialect{
		ColumnQuote:          QuotePair{Open: "[", Close: "]"},
		TableQuote:           QuotePair{Open: "[", Close: "]"},
		SupportsOffsetFetch:  true,
		SupportsOutputClause: true,
	}
}

// QueryBuilder generates T-SQL statements for one dialect configuration.
// It holds no per-call state and is safe for concurrent use.
type QueryBuilder struct {
	dialect Dialect
	quoter  *Quoter
	schema  types.SchemaAccessor
}

// NewQueryBuilder creates a builder for the given dialect. The schema
// accessor supplies resolved table metadata for the operations that need it
// (upsert, returning inserts, comments, sequence reset, integrity toggling);
// it may be nil when only schema-free statements are generated.
func NewQueryBuilder(dialect Dialect, schema types.SchemaAccessor) *QueryBuilder {
	return &QueryBuilder{
		dialect: dialect,
		quoter:  NewQuoter(dialect.ColumnQuote, dialect.TableQuote, dialect.TablePrefix),
		schema:  schema,
	}
}

// Dialect returns the builder's dialect configuration.
func (qb *QueryBuilder) Dialect() Dialect {
	return qb.dialect
}

// Quoter returns the identifier quoter configured for this builder.
func (qb *QueryBuilder) Quoter() *Quoter {
	return qb.quoter
}

// tableSchema resolves table metadata or reports why it cannot.
func (qb *QueryBuilder) tableSchema(table string) (*types.TableSchema, error) {
	if qb.schema == nil {
		return nil, types.ErrNoSchemaAccessor
	}
	ts := qb.schema.TableSchema(table)
	if ts == nil {
		return nil, tableNotFound(table)
	}
	return ts, nil
}
