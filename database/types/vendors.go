//revive:disable-next-line:var-naming // Package name "types" avoids circular imports.
package types

// SQLServer is the vendor identifier reported by connections and used for
// metric and log attribution.
const SQLServer = "sqlserver"
