// Package sqlserver provides the SQL Server implementation of the database
// connection interfaces on top of the microsoft/go-mssqldb driver.
package sqlserver

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	// Registers the "sqlserver" driver.
	_ "github.com/microsoft/go-mssqldb"

	"github.com/sqlbricks/go-mssql/config"
	"github.com/sqlbricks/go-mssql/database/types"
	"github.com/sqlbricks/go-mssql/logger"
)

// Connection implements types.Interface for SQL Server
type Connection struct {
	db     *sql.DB
	config *config.DatabaseConfig
	logger logger.Logger
}

var (
	openSQLServerDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("sqlserver", dsn)
	}
	pingSQLServerDB = func(ctx context.Context, db *sql.DB) error {
		return db.PingContext(ctx)
	}
)

// BuildDSN assembles a sqlserver:// connection URL from the configuration.
// An explicit ConnectionString always wins. A named instance is addressed
// through the URL path, in which case the port is left to SQL Browser.
func BuildDSN(cfg *config.DatabaseConfig) string {
	if cfg.ConnectionString != "" {
		return cfg.ConnectionString
	}

	u := &url.URL{
		Scheme: "sqlserver",
		Host:   cfg.Host,
	}
	if cfg.Username != "" {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}
	if cfg.Instance != "" {
		u.Path = cfg.Instance
	} else if cfg.Port > 0 {
		u.Host = cfg.Host + ":" + strconv.Itoa(cfg.Port)
	}

	q := url.Values{}
	if cfg.Database != "" {
		q.Set("database", cfg.Database)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// NewConnection creates a new SQL Server connection
func NewConnection(cfg *config.DatabaseConfig, log logger.Logger) (types.Interface, error) {
	dsn := BuildDSN(cfg)

	db, err := openSQLServerDB(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQL Server connection: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(int(cfg.MaxConns))
	db.SetMaxIdleConns(int(cfg.MaxIdleConns))
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := pingSQLServerDB(ctx, db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("Failed to close SQL Server connection after ping failure")
		}
		return nil, fmt.Errorf("failed to ping SQL Server database: %w", err)
	}

	ev := log.Info().
		Str("host", cfg.Host).
		Str("database", cfg.Database)
	if cfg.Instance != "" {
		ev = ev.Str("instance", cfg.Instance)
	} else {
		ev = ev.Int("port", cfg.Port)
	}
	ev.Msg("Connected to SQL Server database")

	return &Connection{
		db:     db,
		config: cfg,
		logger: log,
	}, nil
}

// NamedArgs converts a placeholder-to-value map produced by the statement
// builders into driver arguments. The leading ":" of each placeholder is
// stripped so that ":qp0" binds to @qp0.
func NamedArgs(params map[string]any) []any {
	args := make([]any, 0, len(params))
	for name, value := range params {
		args = append(args, sql.Named(strings.TrimPrefix(name, ":"), value))
	}
	return args
}

// BindNamed rewrites the builder placeholders in a statement to the @name
// form the driver resolves and returns the matching driver arguments.
// Placeholders are replaced longest first, ":qp1" never clips ":qp10".
func BindNamed(query string, params map[string]any) (string, []any) {
	if len(params) == 0 {
		return query, nil
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	pairs := make([]string, 0, 2*len(names))
	args := make([]any, 0, len(names))
	for _, name := range names {
		bare := strings.TrimPrefix(name, ":")
		pairs = append(pairs, name, "@"+bare)
		args = append(args, sql.Named(bare, params[name]))
	}
	return strings.NewReplacer(pairs...).Replace(query), args
}

// Statement wraps sql.Stmt to implement types.Statement
type Statement struct {
	stmt *sql.Stmt
}

// Query executes a prepared query with arguments
func (s *Statement) Query(ctx context.Context, args ...any) (*sql.Rows, error) {
	return s.stmt.QueryContext(ctx, args...)
}

// QueryRow executes a prepared query that returns a single row
func (s *Statement) QueryRow(ctx context.Context, args ...any) types.Row {
	return types.NewRowFromSQL(s.stmt.QueryRowContext(ctx, args...))
}

// Exec executes a prepared statement with arguments
func (s *Statement) Exec(ctx context.Context, args ...any) (sql.Result, error) {
	return s.stmt.ExecContext(ctx, args...)
}

// Close closes the prepared statement
func (s *Statement) Close() error {
	return s.stmt.Close()
}

// Transaction wraps sql.Tx to implement types.Tx
type Transaction struct {
	tx *sql.Tx
}

// Query executes a query within the transaction
func (t *Transaction) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, query, args...)
}

// QueryRow executes a query that returns a single row within the transaction
func (t *Transaction) QueryRow(ctx context.Context, query string, args ...any) types.Row {
	return types.NewRowFromSQL(t.tx.QueryRowContext(ctx, query, args...))
}

// Exec executes a query without returning rows within the transaction
func (t *Transaction) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, query, args...)
}

// Prepare creates a prepared statement within the transaction
func (t *Transaction) Prepare(ctx context.Context, query string) (types.Statement, error) {
	stmt, err := t.tx.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &Statement{stmt: stmt}, nil
}

// Commit commits the transaction
func (t *Transaction) Commit() error {
	return t.tx.Commit()
}

// Rollback rolls back the transaction
func (t *Transaction) Rollback() error {
	return t.tx.Rollback()
}

// Query executes a query that returns rows
func (c *Connection) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, query, args...)
}

// QueryRow executes a query that returns at most one row
func (c *Connection) QueryRow(ctx context.Context, query string, args ...any) types.Row {
	return types.NewRowFromSQL(c.db.QueryRowContext(ctx, query, args...))
}

// Exec executes a query without returning any rows
func (c *Connection) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.db.ExecContext(ctx, query, args...)
}

// Prepare creates a prepared statement for later queries or executions
func (c *Connection) Prepare(ctx context.Context, query string) (types.Statement, error) {
	stmt, err := c.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &Statement{stmt: stmt}, nil
}

// Begin starts a transaction
func (c *Connection) Begin(ctx context.Context) (types.Tx, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Transaction{tx: tx}, nil
}

// BeginTx starts a transaction with options
func (c *Connection) BeginTx(ctx context.Context, opts *sql.TxOptions) (types.Tx, error) {
	tx, err := c.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Transaction{tx: tx}, nil
}

// Health checks database connectivity
func (c *Connection) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return c.db.PingContext(ctx)
}

// Stats returns database connection statistics
func (c *Connection) Stats() (map[string]any, error) {
	stats := c.db.Stats()
	return map[string]any{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration":        stats.WaitDuration.String(),
		"max_idle_closed":      stats.MaxIdleClosed,
		"max_idle_time_closed": stats.MaxIdleTimeClosed,
		"max_lifetime_closed":  stats.MaxLifetimeClosed,
	}, nil
}

// Close closes the database connection
func (c *Connection) Close() error {
	c.logger.Info().Msg("Closing SQL Server database connection")
	return c.db.Close()
}

// DatabaseType returns the database type
func (c *Connection) DatabaseType() string {
	return types.SQLServer
}

// ServerVersion reports the server product version, e.g. "15.0.2000.5".
// SERVERPROPERTY returns a sql_variant, so the value is converted server
// side before scanning.
func (c *Connection) ServerVersion(ctx context.Context) (string, error) {
	var version string
	row := c.QueryRow(ctx, "SELECT CONVERT(varchar(128), SERVERPROPERTY('productversion'))")
	if err := row.Scan(&version); err != nil {
		return "", fmt.Errorf("failed to read SQL Server version: %w", err)
	}
	return version, nil
}
