//revive:disable-next-line:var-naming // Package name "types" avoids circular imports.
package types

// ColumnSchema describes a single resolved table column.
// Instances are produced by a schema accessor and are read-only to the
// statement generators.
type ColumnSchema struct {
	// Name is the unquoted column name.
	Name string
	// DBType is the physical column type as reported by the catalog,
	// including any size suffix (e.g. "varchar(128)", "int").
	DBType string
	// AllowNull reports whether the column accepts NULL values.
	AllowNull bool
}

// UniqueConstraint describes a unique index or key over an ordered set of
// columns. It is consumed only for upsert conflict-target resolution.
type UniqueConstraint struct {
	// Name is the constraint name, empty for an unnamed index.
	Name string
	// Columns are the unquoted column names forming the key, in key order.
	Columns []string
}

// TableSchema is the resolved metadata for one table. It is supplied by a
// schema accessor; the statement generators never introspect the database
// themselves.
type TableSchema struct {
	// SchemaName is the owning schema, empty when the table lives in the
	// connection's default schema.
	SchemaName string
	// Name is the unquoted simple table name.
	Name string
	// Columns holds the table's columns in ordinal order.
	Columns []*ColumnSchema
	// PrimaryKey lists the primary key column names, in key order.
	PrimaryKey []string
	// SequenceName names the identity sequence backing the primary key,
	// empty when the table has none.
	SequenceName string
	// Uniques lists the table's unique constraints. The primary key is not
	// repeated here.
	Uniques []UniqueConstraint
}

// Column returns the column with the given name, or nil when the table does
// not declare it.
func (t *TableSchema) Column(name string) *ColumnSchema {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// FullName returns the schema-qualified table name, unquoted.
func (t *TableSchema) FullName() string {
	if t.SchemaName != "" {
		return t.SchemaName + "." + t.Name
	}
	return t.Name
}

// SchemaAccessor supplies resolved table metadata to the statement
// generators. Implementations typically wrap a schema cache populated from
// the catalog views; tests use in-memory fixtures.
type SchemaAccessor interface {
	// TableSchema resolves the given (possibly schema-qualified) table name.
	// It returns nil when the table is unknown.
	TableSchema(name string) *TableSchema

	// TableNames lists the tables of the given schema. An empty schema name
	// means the default schema.
	TableNames(schema string) []string
}
