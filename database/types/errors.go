//revive:disable-next-line:var-naming // Package name "types" avoids circular imports.
package types

import "errors"

// Sentinel errors for statement generation failures.
// These can be used with errors.Is() for programmatic error checking.
var (
	// ErrTableNotFound is returned when an operation targets a table the
	// schema accessor cannot resolve.
	ErrTableNotFound = errors.New("table not found in schema")

	// ErrNoSequence is returned when a sequence reset is requested on a table
	// that has no identity column associated with it.
	ErrNoSequence = errors.New("table has no associated sequence")

	// ErrNoPrimaryKey is returned when an operation needs a primary key the
	// resolved table schema does not declare.
	ErrNoPrimaryKey = errors.New("table has no primary key")

	// ErrNoSchemaAccessor is returned when an operation requires resolved
	// schema metadata but the builder was constructed without an accessor.
	ErrNoSchemaAccessor = errors.New("schema accessor is not configured")

	// ErrNotSupported is returned when an operation has no meaningful
	// translation in the target dialect.
	ErrNotSupported = errors.New("operation not supported by this dialect")

	// ErrEmptyTableName is returned when a statement is requested for an
	// empty table name.
	ErrEmptyTableName = errors.New("table name cannot be empty")

	// ErrParamMismatch is returned when a condition fragment declares a
	// different number of placeholders than bound arguments.
	ErrParamMismatch = errors.New("placeholder count does not match argument count")
)
