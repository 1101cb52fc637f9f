// Package database is the public surface of the SQL Server statement
// generation library: the query builder facade, dialect configuration,
// server version parsing, and the tracked connection entry point.
package database

import (
	"github.com/Masterminds/squirrel"

	"github.com/sqlbricks/go-mssql/database/internal/builder"
	"github.com/sqlbricks/go-mssql/database/types"
)

// Re-export the generation vocabulary so callers never import the internal
// builder package directly.
type (
	Dialect        = builder.Dialect
	QuotePair      = builder.QuotePair
	Quoter         = builder.Quoter
	Params         = builder.Params
	Order          = builder.Order
	SelectSource   = builder.SelectSource
	ConflictUpdate = builder.ConflictUpdate
)

// Conflict behaviour constructors for Upsert.
var (
	UpdateAll      = builder.UpdateAll
	SkipOnConflict = builder.SkipOnConflict
	UpdateColumns  = builder.UpdateColumns
)

// DefaultDialect returns the configuration for a current SQL Server.
func DefaultDialect() Dialect {
	return builder.DefaultDialect()
}

// ColumnType converts an abstract column type tag ("pk", "string(64)",
// "boolean", ...) to its physical T-SQL type.
func ColumnType(abstract string) string {
	return builder.ColumnType(abstract)
}

// QueryBuilder generates T-SQL statements. It is a thin wrapper around the
// internal implementation; all generation methods are promoted through
// embedding.
type QueryBuilder struct {
	*builder.QueryBuilder
}

// NewQueryBuilder creates a query builder for an explicit dialect
// configuration. schema supplies table metadata for the operations that
// need it and may be nil.
func NewQueryBuilder(dialect Dialect, schema types.SchemaAccessor) *QueryBuilder {
	return &QueryBuilder{
		QueryBuilder: builder.NewQueryBuilder(dialect, schema),
	}
}

// NewQueryBuilderForVersion creates a query builder with capabilities
// derived from the server's product version string, as returned by
// Interface.ServerVersion.
func NewQueryBuilderForVersion(version string, schema types.SchemaAccessor) (*QueryBuilder, error) {
	dialect, err := DialectForVersion(version)
	if err != nil {
		return nil, err
	}
	return NewQueryBuilder(dialect, schema), nil
}

// Select starts a squirrel SELECT whose text can be fed back through
// BuildOrderByAndLimit or used as an insert/upsert row source. Placeholders
// stay positional here; they are rebound as named parameters when the
// statement passes through a generation method.
func (qb *QueryBuilder) Select(columns ...string) squirrel.SelectBuilder {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = qb.Quoter().QuoteColumnName(c)
	}
	return squirrel.Select(quoted...)
}
