package builder

import (
	"github.com/sqlbricks/go-mssql/database/types"
)

// fakeSchema is an in-memory SchemaAccessor used across the package tests.
type fakeSchema struct {
	tables map[string]*types.TableSchema
	names  map[string][]string
}

func (f *fakeSchema) TableSchema(name string) *types.TableSchema {
	return f.tables[name]
}

func (f *fakeSchema) TableNames(schema string) []string {
	return f.names[schema]
}

// testSchema mirrors a small retail-ish catalog: customer has an identity
// primary key plus a unique email, order_log has neither.
func testSchema() *fakeSchema {
	return &fakeSchema{
		tables: map[string]*types.TableSchema{
			"customer": {
				Name: "customer",
				Columns: []*types.ColumnSchema{
					{Name: "id", DBType: "int", AllowNull: false},
					{Name: "email", DBType: "varchar(128)", AllowNull: false},
					{Name: "name", DBType: "nvarchar(128)", AllowNull: true},
				},
				PrimaryKey:   []string{"id"},
				SequenceName: "customer_SEQ",
				Uniques: []types.UniqueConstraint{
					{Name: "UQ_customer_email", Columns: []string{"email"}},
				},
			},
			"order_log": {
				Name: "order_log",
				Columns: []*types.ColumnSchema{
					{Name: "message", DBType: "nvarchar(max)", AllowNull: true},
				},
			},
		},
		names: map[string][]string{
			"dbo": {"customer", "order_log"},
		},
	}
}

func newTestBuilder() *QueryBuilder {
	return NewQueryBuilder(DefaultDialect(), testSchema())
}

func newSchemalessBuilder() *QueryBuilder {
	return NewQueryBuilder(DefaultDialect(), nil)
}
