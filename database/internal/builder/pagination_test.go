package builder

import (
	"testing"
)

func legacyBuilder() *QueryBuilder {
	dialect := DefaultDialect()
	dialect.SupportsOffsetFetch = false
	return NewQueryBuilder(dialect, nil)
}

func TestBuildOrderByAndLimitOffsetFetch(t *testing.T) {
	qb := newSchemalessBuilder()
	base := "SELECT [id] FROM [t]"

	cases := []struct {
		name    string
		orderBy []Order
		limit   int
		offset  int
		want    string
	}{
		{
			name:  "limit and offset",
			limit: 10, offset: 5,
			want: "SELECT [id] FROM [t] ORDER BY (SELECT NULL) OFFSET 5 ROWS FETCH NEXT 10 ROWS ONLY",
		},
		{
			name:  "limit only",
			limit: 10,
			want:  "SELECT [id] FROM [t] ORDER BY (SELECT NULL) OFFSET 0 ROWS FETCH NEXT 10 ROWS ONLY",
		},
		{
			name:   "offset only",
			offset: 5,
			want:   "SELECT [id] FROM [t] ORDER BY (SELECT NULL) OFFSET 5 ROWS",
		},
		{
			name:    "explicit ordering",
			orderBy: []Order{{Column: "name"}, {Column: "id", Desc: true}},
			limit:   3,
			want:    "SELECT [id] FROM [t] ORDER BY [name], [id] DESC OFFSET 0 ROWS FETCH NEXT 3 ROWS ONLY",
		},
		{
			name:    "ordering without pagination",
			orderBy: []Order{{Column: "name"}},
			want:    "SELECT [id] FROM [t] ORDER BY [name]",
		},
		{
			name: "no ordering no pagination",
			want: base,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := qb.BuildOrderByAndLimit(base, tc.orderBy, tc.limit, tc.offset); got != tc.want {
				t.Fatalf("unexpected SQL:\n got %s\nwant %s", got, tc.want)
			}
		})
	}
}

func TestBuildOrderByAndLimitRowNumberEmulation(t *testing.T) {
	qb := legacyBuilder()
	base := "SELECT [id] FROM [t]"

	got := qb.BuildOrderByAndLimit(base, nil, 10, 5)
	want := "SELECT TOP 10 * FROM (SELECT rowNum = ROW_NUMBER() over (ORDER BY (SELECT NULL)), [id] FROM [t]) sub WHERE sub.rowNum > 5"
	if got != want {
		t.Fatalf("unexpected SQL:\n got %s\nwant %s", got, want)
	}

	got = qb.BuildOrderByAndLimit(base, []Order{{Column: "name"}}, 10, 0)
	want = "SELECT TOP 10 * FROM (SELECT rowNum = ROW_NUMBER() over (ORDER BY [name]), [id] FROM [t]) sub"
	if got != want {
		t.Fatalf("unexpected SQL:\n got %s\nwant %s", got, want)
	}

	got = qb.BuildOrderByAndLimit(base, nil, 0, 5)
	want = "SELECT * FROM (SELECT rowNum = ROW_NUMBER() over (ORDER BY (SELECT NULL)), [id] FROM [t]) sub WHERE sub.rowNum > 5"
	if got != want {
		t.Fatalf("unexpected SQL:\n got %s\nwant %s", got, want)
	}
}

func TestBuildOrderByAndLimitRowNumberDistinct(t *testing.T) {
	qb := legacyBuilder()

	got := qb.BuildOrderByAndLimit("SELECT DISTINCT [id] FROM [t]", nil, 2, 0)
	want := "SELECT TOP 2 * FROM (SELECT DISTINCT rowNum = ROW_NUMBER() over (ORDER BY (SELECT NULL)), [id] FROM [t]) sub"
	if got != want {
		t.Fatalf("unexpected SQL:\n got %s\nwant %s", got, want)
	}
}

func TestBuildOrderByAndLimitRefusesTopStatements(t *testing.T) {
	qb := legacyBuilder()
	base := "SELECT TOP (3) [id] FROM [t]"

	if got := qb.BuildOrderByAndLimit(base, nil, 10, 5); got != base {
		t.Fatalf("statement with TOP must pass through unchanged, got %s", got)
	}
}
