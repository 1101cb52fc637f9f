package database

import (
	"fmt"
	"strconv"
	"strings"
)

// Major product version numbers of the SQL Server releases the generator
// distinguishes. The engine reports them as the leading component of
// SERVERPROPERTY('productversion').
const (
	Version2005 = 9
	Version2008 = 10
	Version2012 = 11
	Version2014 = 12
	Version2016 = 13
	Version2017 = 14
	Version2019 = 15
	Version2022 = 16
)

// ParseServerVersion extracts the major version from a product version
// string such as "15.0.2000.5". Leading non-numeric noise is rejected; a
// bare major ("15") is accepted.
func ParseServerVersion(version string) (int, error) {
	head := strings.TrimSpace(version)
	if idx := strings.IndexByte(head, '.'); idx != -1 {
		head = head[:idx]
	}
	major, err := strconv.Atoi(head)
	if err != nil || major <= 0 {
		return 0, fmt.Errorf("unparsable server version %q", version)
	}
	return major, nil
}

// DialectForVersion derives the dialect capabilities from a product version
// string: native OFFSET/FETCH pagination arrived with SQL Server 2012 and
// the OUTPUT clause with SQL Server 2008. Everything else in the dialect
// keeps its defaults.
func DialectForVersion(version string) (Dialect, error) {
	major, err := ParseServerVersion(version)
	if err != nil {
		return Dialect{}, err
	}
	dialect := DefaultDialect()
	dialect.SupportsOffsetFetch = major >= Version2012
	dialect.SupportsOutputClause = major >= Version2008
	return dialect, nil
}
