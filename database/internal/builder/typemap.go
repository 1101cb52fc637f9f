package builder

import "regexp"

// Abstract column type tags accepted by ColumnType and AlterColumn.
const (
	TypePK        = "pk"
	TypeUPK       = "upk"
	TypeBigPK     = "bigpk"
	TypeUBigPK    = "ubigpk"
	TypeChar      = "char"
	TypeString    = "string"
	TypeText      = "text"
	TypeTinyInt   = "tinyint"
	TypeSmallInt  = "smallint"
	TypeInteger   = "integer"
	TypeBigInt    = "bigint"
	TypeFloat     = "float"
	TypeDouble    = "double"
	TypeDecimal   = "decimal"
	TypeDateTime  = "datetime"
	TypeTimestamp = "timestamp"
	TypeTime      = "time"
	TypeDate      = "date"
	TypeBinary    = "binary"
	TypeBoolean   = "boolean"
	TypeMoney     = "money"
)

// typeMap is the immutable mapping from abstract type tags to their physical
// T-SQL types. It is resolved at package load and never mutated.
var typeMap = map[string]string{
	TypePK:        "int IDENTITY PRIMARY KEY",
	TypeUPK:       "int IDENTITY PRIMARY KEY",
	TypeBigPK:     "bigint IDENTITY PRIMARY KEY",
	TypeUBigPK:    "bigint IDENTITY PRIMARY KEY",
	TypeChar:      "nchar(1)",
	TypeString:    "nvarchar(255)",
	TypeText:      "nvarchar(max)",
	TypeTinyInt:   "tinyint",
	TypeSmallInt:  "smallint",
	TypeInteger:   "int",
	TypeBigInt:    "bigint",
	TypeFloat:     "float",
	TypeDouble:    "float",
	TypeDecimal:   "decimal(18,0)",
	TypeDateTime:  "datetime",
	TypeTimestamp: "datetime",
	TypeTime:      "time",
	TypeDate:      "date",
	TypeBinary:    "varbinary(max)",
	TypeBoolean:   "bit",
	TypeMoney:     "decimal(19,4)",
}

var (
	// sizedTypePattern captures "tag(size)suffix" abstract types so the
	// caller-supplied size wins over the mapped default.
	sizedTypePattern = regexp.MustCompile(`^(\w+)\((.+?)\)(.*)$`)
	typeSizePattern  = regexp.MustCompile(`\(.+\)`)
)

// ColumnType converts an abstract column type tag to its physical T-SQL
// type. A size attached to the tag replaces the mapped default size
// ("string(64)" becomes "nvarchar(64)"); unknown tags pass through unchanged
// so callers can hand physical types directly.
func ColumnType(abstract string) string {
	if physical, ok := typeMap[abstract]; ok {
		return physical
	}
	if m := sizedTypePattern.FindStringSubmatch(abstract); m != nil {
		if physical, ok := typeMap[m[1]]; ok {
			if typeSizePattern.MatchString(physical) {
				return typeSizePattern.ReplaceAllString(physical, "("+m[2]+")") + m[3]
			}
			return physical + "(" + m[2] + ")" + m[3]
		}
	}
	return abstract
}
