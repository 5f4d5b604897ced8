package eval

import (
	"testing"

	"github.com/gravwell/wplrouter/wpl/parse"
)

func TestExecuteSeqIPChars(t *testing.T) {
	ast, err := parse.ParseStatementSource(`(src:ip,chars<[,]>)<,>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rec, err := Execute(ast, "10.0.0.1,hello world")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	f, ok := rec.Get("src")
	if !ok {
		t.Fatalf("missing src field")
	}
	if f.Value.Addr.String() != "10.0.0.1" {
		t.Fatalf("src = %v, want 10.0.0.1", f.Value.Addr)
	}
	cf, ok := rec.Get("chars")
	if !ok || cf.Value.Str != "hello world" {
		t.Fatalf("chars = %+v, want hello world", cf.Value)
	}
}

func TestExecuteOptGroupNoMatchLeavesRecordUnchanged(t *testing.T) {
	ast, err := parse.ParseStatementSource(`opt(digit),(chars)`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rec, err := Execute(ast, "notanumber")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, ok := rec.Get("digit"); ok {
		t.Fatalf("digit field should not be present")
	}
	if _, ok := rec.Get("chars"); !ok {
		t.Fatalf("chars field should be present")
	}
}

func TestExecuteAltFirstMatchWins(t *testing.T) {
	ast, err := parse.ParseStatementSource(`alt(digit,chars)`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rec, err := Execute(ast, "42")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	f, ok := rec.Get("digit")
	if !ok || f.Value.Int != 42 {
		t.Fatalf("digit = %+v, want 42", f.Value)
	}
}

func TestExecuteSkipField(t *testing.T) {
	ast, err := parse.ParseStatementSource(`(_^1,chars)<,>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rec, err := Execute(ast, "skipme,keepme")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	f, ok := rec.Get("chars")
	if !ok || f.Value.Str != "keepme" {
		t.Fatalf("chars = %+v, want keepme", f.Value)
	}
}

func TestExecuteJSONSubfields(t *testing.T) {
	ast, err := parse.ParseStatementSource(`(json(user,count))`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rec, err := Execute(ast, `{"user":"alice","count":3}`)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	f, ok := rec.Get("json")
	if !ok {
		t.Fatalf("missing json field")
	}
	var gotUser, gotCount string
	for _, s := range f.Value.Sub {
		switch s.Name.String() {
		case "user":
			gotUser = s.Value.Str
		case "count":
			gotCount = s.Value.String()
		}
	}
	if gotUser != "alice" {
		t.Errorf("user = %q, want alice", gotUser)
	}
	if gotCount != "3" {
		t.Errorf("count = %q, want 3", gotCount)
	}
}

func TestExecuteCopyRawAnnotation(t *testing.T) {
	ast, err := parse.ParseRuleSource(`#[copy_raw(name:"raw")]
rule r {
	(chars)
}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rec, err := Execute(ast, "hello")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	f, ok := rec.Get("raw")
	if !ok || f.Value.Str != "hello" {
		t.Fatalf("raw = %+v, want hello", f.Value)
	}
}
