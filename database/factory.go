package database

import (
	"github.com/sqlbricks/go-mssql/config"
	"github.com/sqlbricks/go-mssql/database/sqlserver"
	"github.com/sqlbricks/go-mssql/logger"
)

// NewConnection opens a SQL Server connection according to cfg and returns it
// wrapped with performance tracking. Connection failures from the driver are
// returned as-is.
func NewConnection(cfg *config.DatabaseConfig, log logger.Logger) (Interface, error) {
	conn, err := sqlserver.NewConnection(cfg, log)
	if err != nil {
		return nil, err
	}

	// Wrap the connection with performance tracking
	return NewTrackedConnection(conn, log, cfg), nil
}

// NamedArgs converts a statement builder parameter map into driver arguments.
var NamedArgs = sqlserver.NamedArgs

// BindNamed rewrites builder placeholders to the driver's @name form and
// returns the statement text together with its driver arguments.
var BindNamed = sqlserver.BindNamed
