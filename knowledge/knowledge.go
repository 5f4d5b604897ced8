// Package knowledge implements the SQLite-backed dictionary lookup
// facade OML transforms and WPL pipes call into for reference-table
// joins: CIDR ranges, enum lookups, geo tables, and similar read-only
// side data a rule or transform needs at runtime.
package knowledge

import "context"

// Facade is the narrow surface a rule or pipe sees. Row is a single
// result row keyed by column name, matching sqlx's own MapScan shape so
// SQLiteFacade needs no translation layer.
type Facade interface {
	Query(ctx context.Context, table string, where string, args ...interface{}) ([]Row, error)
	QueryNamed(ctx context.Context, sql string, arg interface{}) ([]Row, error)
	QueryCipher(ctx context.Context, cipherName string, input string) (string, error)
	Close() error
}

// Row is one result row, column name to scanned value.
type Row map[string]interface{}
