package filter

import (
	"testing"

	"github.com/gravwell/wplrouter/record"
)

func recWith(fields map[string]record.Value) *record.DataRecord {
	r := record.NewRecord(len(fields))
	for k, v := range fields {
		r.Add(record.Intern(k), v.Kind, v)
	}
	return r
}

func TestCompileSimpleComparison(t *testing.T) {
	e, err := Compile(`status == 200`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	rec := recWith(map[string]record.Value{"status": record.NewDigit(200)})
	if !e.Eval(rec, NewMatchCache()) {
		t.Fatal("expected match")
	}
}

func TestCompileAndOr(t *testing.T) {
	e, err := Compile(`status == 200 and length > 0`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	cache := NewMatchCache()
	ok := recWith(map[string]record.Value{"status": record.NewDigit(200), "length": record.NewDigit(368)})
	if !e.Eval(ok, cache) {
		t.Fatal("expected match for status 200 length 368")
	}
	bad := recWith(map[string]record.Value{"status": record.NewDigit(500), "length": record.NewDigit(368)})
	if e.Eval(bad, cache) {
		t.Fatal("expected no match for status 500")
	}
}

func TestCompileNotAndParens(t *testing.T) {
	e, err := Compile(`not (status == 200)`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	rec := recWith(map[string]record.Value{"status": record.NewDigit(500)})
	if !e.Eval(rec, NewMatchCache()) {
		t.Fatal("expected match (500 != 200)")
	}
}

func TestCompileWildcard(t *testing.T) {
	e, err := Compile(`host =* "web-*"`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	cache := NewMatchCache()
	rec := recWith(map[string]record.Value{"host": record.NewChars("web-01")})
	if !e.Eval(rec, cache) {
		t.Fatal("expected wildcard match")
	}
	rec2 := recWith(map[string]record.Value{"host": record.NewChars("db-01")})
	if e.Eval(rec2, cache) {
		t.Fatal("expected no wildcard match")
	}
}

func TestCompareValueFloatTolerance(t *testing.T) {
	rec := recWith(map[string]record.Value{"ratio": record.NewFloat(0.30001)})
	e, err := Compile(`ratio == 0.3`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !e.Eval(rec, NewMatchCache()) {
		t.Fatal("expected float-tolerant match")
	}
}

func TestMissingFieldNeverMatches(t *testing.T) {
	e, err := Compile(`nope == 1`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if e.Eval(record.NewRecord(0), NewMatchCache()) {
		t.Fatal("missing field should never match")
	}
}
