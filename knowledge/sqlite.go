package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"net/netip"
	"runtime"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"
)

const driverName = "wplrouter-knowledge-sqlite3"

var registerOnce sync.Once

// registerDriver wires the scalar UDFs the knowledge dictionary lookups
// need (ip4_int, cidr4_contains, ip4_between, trim_quotes) into every
// connection the driver opens, via a ConnectHook on a dedicated driver
// name so registration happens exactly once per process.
func registerDriver() {
	registerOnce.Do(func() {
		sql.Register(driverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				if err := conn.RegisterFunc("ip4_int", ip4Int, true); err != nil {
					return err
				}
				if err := conn.RegisterFunc("cidr4_contains", cidr4Contains, true); err != nil {
					return err
				}
				if err := conn.RegisterFunc("ip4_between", ip4Between, true); err != nil {
					return err
				}
				if err := conn.RegisterFunc("trim_quotes", trimQuotes, true); err != nil {
					return err
				}
				return nil
			},
		})
	})
}

// SQLiteFacade implements Facade against a read-only snapshot of the
// authority SQLite file, using a connection pool sized to let each
// goroutine hold its own lease concurrently — database/sql's pool is
// already goroutine-safe, so no additional locking is needed around it.
type SQLiteFacade struct {
	db        *sqlx.DB
	whitelist map[string]struct{}
}

// Open connects read-only to the SQLite file at path (a backup copy of
// the authority database — callers are responsible for refreshing that
// copy), with tables restricted to the given whitelist.
func Open(path string, tables []string) (*SQLiteFacade, error) {
	registerDriver()
	db, err := sqlx.Connect(driverName, fmt.Sprintf("file:%s?mode=ro&_query_only=true", path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(runtime.GOMAXPROCS(0) * 2)

	wl := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		wl[t] = struct{}{}
	}
	return &SQLiteFacade{db: db, whitelist: wl}, nil
}

func (f *SQLiteFacade) Close() error { return f.db.Close() }

// Query runs `SELECT * FROM <table> WHERE <where>` with args bound
// positionally, after checking table against the whitelist.
func (f *SQLiteFacade) Query(ctx context.Context, table, where string, args ...interface{}) ([]Row, error) {
	if _, ok := f.whitelist[table]; !ok {
		return nil, fmt.Errorf("knowledge: table %q is not in the allowed table list", table)
	}
	q := fmt.Sprintf("SELECT * FROM %s", table)
	if where != "" {
		q += " WHERE " + where
	}
	rows, err := f.db.QueryxContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

// QueryNamed runs sqlStr with named parameters taken from arg (a struct
// or map[string]interface{}, per sqlx's NamedQuery contract). sqlStr is
// caller-supplied and not whitelist-checked; the final SQL is built in Go
// code rather than reconstructed from table/column whitelists here.
func (f *SQLiteFacade) QueryNamed(ctx context.Context, sqlStr string, arg interface{}) ([]Row, error) {
	rows, err := f.db.NamedQueryContext(ctx, sqlStr, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

// QueryCipher looks up a single translated value from the whitelisted
// `ciphers` table: `SELECT output FROM ciphers WHERE cipher = ? AND
// input = ?`. It is the one-value-out shortcut OML pipes use for
// dictionary substitution (e.g. mapping an internal status code to its
// display name) without hand-building a Query call.
func (f *SQLiteFacade) QueryCipher(ctx context.Context, cipherName, input string) (string, error) {
	if _, ok := f.whitelist["ciphers"]; !ok {
		return "", fmt.Errorf("knowledge: table \"ciphers\" is not in the allowed table list")
	}
	var out string
	err := f.db.GetContext(ctx, &out, `SELECT output FROM ciphers WHERE cipher = ? AND input = ?`, cipherName, input)
	if err != nil {
		return "", err
	}
	return out, nil
}

func scanRows(rows *sqlx.Rows) ([]Row, error) {
	var out []Row
	for rows.Next() {
		m := make(map[string]interface{})
		if err := rows.MapScan(m); err != nil {
			return nil, err
		}
		out = append(out, Row(m))
	}
	return out, rows.Err()
}

// --- scalar UDFs ---

func ip4Int(s string) int64 {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return -1
	}
	b := addr.As4()
	return int64(b[0])<<24 | int64(b[1])<<16 | int64(b[2])<<8 | int64(b[3])
}

func cidr4Contains(cidr, ip string) bool {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	return prefix.Contains(addr)
}

func ip4Between(ip, lo, hi string) bool {
	v := ip4Int(ip)
	l := ip4Int(lo)
	h := ip4Int(hi)
	if v < 0 || l < 0 || h < 0 {
		return false
	}
	return v >= l && v <= h
}

func trimQuotes(s string) string {
	return strings.Trim(s, `"'`)
}
