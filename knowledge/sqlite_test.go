package knowledge

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// seedDB creates a fresh SQLite file with a geoip table the facade's
// whitelist can allow, building a throwaway database per test via the
// plain "sqlite3" driver before handing it to the package under test.
func seedDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "knowledge.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE geoip (ip TEXT, country TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO geoip (ip, country) VALUES (?, ?)`, "10.0.0.1", "US")
	require.NoError(t, err)
	return path
}

func TestOpenQueryReturnsSeededRow(t *testing.T) {
	path := seedDB(t)

	f, err := Open(path, []string{"geoip"})
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.Query(context.Background(), "geoip", "ip = ?", "10.0.0.1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "US", rows[0]["country"])
}

func TestIP4IntRoundTripsDottedQuad(t *testing.T) {
	if got := ip4Int("10.0.0.1"); got != (10<<24 | 0<<16 | 0<<8 | 1) {
		t.Fatalf("unexpected ip4Int: %d", got)
	}
	if ip4Int("not-an-ip") != -1 {
		t.Fatal("expected -1 for invalid address")
	}
}

func TestCidr4ContainsMatchesPrefix(t *testing.T) {
	if !cidr4Contains("10.0.0.0/8", "10.1.2.3") {
		t.Fatal("expected 10.1.2.3 to be inside 10.0.0.0/8")
	}
	if cidr4Contains("10.0.0.0/8", "192.168.1.1") {
		t.Fatal("expected 192.168.1.1 to be outside 10.0.0.0/8")
	}
	if cidr4Contains("not-a-cidr", "10.1.2.3") {
		t.Fatal("expected malformed cidr to never match")
	}
}

func TestIP4BetweenRange(t *testing.T) {
	if !ip4Between("10.0.0.5", "10.0.0.1", "10.0.0.10") {
		t.Fatal("expected 10.0.0.5 to be within range")
	}
	if ip4Between("10.0.0.20", "10.0.0.1", "10.0.0.10") {
		t.Fatal("expected 10.0.0.20 to be outside range")
	}
}

func TestTrimQuotesStripsMatchingQuotes(t *testing.T) {
	if got := trimQuotes(`"hello"`); got != "hello" {
		t.Fatalf("unexpected: %q", got)
	}
	if got := trimQuotes(`'hello'`); got != "hello" {
		t.Fatalf("unexpected: %q", got)
	}
	if got := trimQuotes("hello"); got != "hello" {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestQueryRejectsTableNotInWhitelist(t *testing.T) {
	f := &SQLiteFacade{whitelist: map[string]struct{}{"geoip": {}}}
	if _, err := f.Query(context.Background(), "users", "1=1"); err == nil {
		t.Fatal("expected an error for a table outside the whitelist")
	}
}

func TestQueryCipherRejectsWhenCiphersTableNotWhitelisted(t *testing.T) {
	f := &SQLiteFacade{whitelist: map[string]struct{}{"geoip": {}}}
	if _, err := f.QueryCipher(context.Background(), "status", "200"); err == nil {
		t.Fatal("expected an error when the ciphers table is not whitelisted")
	}
}
