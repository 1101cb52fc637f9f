package database

import "github.com/sqlbricks/go-mssql/database/types"

// Re-export the vendor identifier so callers using the database package do
// not need the types package; the single source of truth lives in types.
const SQLServer = types.SQLServer
