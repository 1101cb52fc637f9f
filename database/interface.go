package database

import (
	"github.com/sqlbricks/go-mssql/database/types"
)

// Interface defines the common database operations supported by the library.
// This type alias keeps call sites short while the actual interfaces live in
// the database/types package to avoid import cycles.
type Interface = types.Interface

// Statement defines the interface for prepared statements.
type Statement = types.Statement

// Tx defines the interface for database transactions.
type Tx = types.Tx

// Row represents a single result set row.
type Row = types.Row
