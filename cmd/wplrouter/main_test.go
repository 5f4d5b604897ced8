package main

import (
	"testing"

	"github.com/gravwell/wplrouter/sink"
)

func TestParamStringFallsBackToDefault(t *testing.T) {
	m := map[string]interface{}{"format": "json"}
	if got := paramString(m, "format", "raw"); got != "json" {
		t.Fatalf("expected json, got %q", got)
	}
	if got := paramString(m, "missing", "raw"); got != "raw" {
		t.Fatalf("expected default raw, got %q", got)
	}
}

func TestParamIntAcceptsTOMLInt64(t *testing.T) {
	m := map[string]interface{}{"queue_size": int64(512)}
	if got := paramInt(m, "queue_size", 1024); got != 512 {
		t.Fatalf("expected 512, got %d", got)
	}
	if got := paramInt(m, "missing", 1024); got != 1024 {
		t.Fatalf("expected default 1024, got %d", got)
	}
}

func TestParamBoolDefaultsWhenAbsentOrWrongType(t *testing.T) {
	m := map[string]interface{}{"adaptive_backoff": true, "queue_size": int64(1)}
	if !paramBool(m, "adaptive_backoff", false) {
		t.Fatal("expected true")
	}
	if paramBool(m, "queue_size", false) {
		t.Fatal("expected default false for a non-bool value")
	}
}

func TestParamStringMapExtractsNestedStrings(t *testing.T) {
	m := map[string]interface{}{
		"tags": map[string]interface{}{"env": "prod", "region": "us-east"},
	}
	got := paramStringMap(m, "tags")
	if got["env"] != "prod" || got["region"] != "us-east" {
		t.Fatalf("unexpected tags: %+v", got)
	}
}

func TestMergeParamsOverrideWins(t *testing.T) {
	base := map[string]interface{}{"path": "/var/log/a.log", "format": "raw"}
	override := map[string]interface{}{"format": "json"}
	got := mergeParams(base, override)
	if got["path"] != "/var/log/a.log" || got["format"] != "json" {
		t.Fatalf("unexpected merge result: %+v", got)
	}
}

func TestOverflowPolicyMapsKnownNames(t *testing.T) {
	cases := map[string]sink.OverflowPolicy{
		"drop_newest": sink.DropNewest,
		"drop_oldest": sink.DropOldest,
		"block":       sink.Block,
		"nonsense":    sink.Block,
	}
	for name, want := range cases {
		if got := overflowPolicy(name); got != want {
			t.Fatalf("overflowPolicy(%q) = %v, want %v", name, got, want)
		}
	}
}

type fakeWriter struct {
	name   string
	sent   int
	closed bool
	ok     bool
}

func (f *fakeWriter) Name() string { return f.name }
func (f *fakeWriter) Send(sink.Record) bool {
	f.sent++
	return f.ok
}
func (f *fakeWriter) Close() error { f.closed = true; return nil }

func TestFanoutSingleWriterPassesThrough(t *testing.T) {
	w := &fakeWriter{name: "solo", ok: true}
	got := fanout([]sink.Writer{w})
	if got != sink.Writer(w) {
		t.Fatal("expected fanout of one writer to return it unwrapped")
	}
}

func TestFanoutMultipleWritersSendsToAll(t *testing.T) {
	a := &fakeWriter{name: "a", ok: true}
	b := &fakeWriter{name: "b", ok: false}
	got := fanout([]sink.Writer{a, b})
	if ok := got.Send(sink.Record{}); ok {
		t.Fatal("expected fanout Send to report false when any writer drops")
	}
	if a.sent != 1 || b.sent != 1 {
		t.Fatalf("expected both writers to receive the record, got a=%d b=%d", a.sent, b.sent)
	}
	if err := got.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !a.closed || !b.closed {
		t.Fatal("expected fanout Close to close every underlying writer")
	}
}
