package builder

import "testing"

func TestColumnType(t *testing.T) {
	cases := map[string]string{
		TypePK:         "int IDENTITY PRIMARY KEY",
		TypeBigPK:      "bigint IDENTITY PRIMARY KEY",
		TypeString:     "nvarchar(255)",
		"string(64)":   "nvarchar(64)",
		TypeText:       "nvarchar(max)",
		TypeBoolean:    "bit",
		TypeDouble:     "float",
		"decimal(12,4)": "decimal(12,4)",
		TypeMoney:      "decimal(19,4)",
		TypeTimestamp:  "datetime",
		// Sized tags whose mapped type has no default size get the size
		// appended, trailing attributes preserved.
		"time(3) NOT NULL": "time(3) NOT NULL",
		// Unknown tags are treated as physical types.
		"uniqueidentifier": "uniqueidentifier",
		"varchar(10)":      "varchar(10)",
	}
	for in, want := range cases {
		if got := ColumnType(in); got != want {
			t.Fatalf("ColumnType(%q) = %q, want %q", in, got, want)
		}
	}
}
