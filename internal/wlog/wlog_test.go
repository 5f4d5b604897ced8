package wlog

import (
	"bytes"
	"strings"
	"testing"
)

type buf struct{ *bytes.Buffer }

func (buf) Close() error { return nil }

func newTestLogger() (*Logger, *bytes.Buffer) {
	b := &bytes.Buffer{}
	return New(buf{b}), b
}

func TestInfoWritesRFC5424Line(t *testing.T) {
	lg, b := newTestLogger()
	lg.Info("hello world", KV("k", "v"))
	out := b.String()
	if !strings.Contains(out, "hello world") {
		t.Fatalf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "k=") || !strings.Contains(out, "v") {
		t.Fatalf("expected structured-data param in output, got %q", out)
	}
}

func TestSetLevelFiltersBelowThreshold(t *testing.T) {
	lg, b := newTestLogger()
	lg.SetLevel(ERROR)
	lg.Info("should be dropped")
	if b.Len() != 0 {
		t.Fatalf("expected INFO to be filtered at ERROR level, got %q", b.String())
	}
	lg.Error("should appear")
	if !strings.Contains(b.String(), "should appear") {
		t.Fatal("expected ERROR-level message to pass the filter")
	}
}

func TestLevelFromStringRoundTrip(t *testing.T) {
	cases := map[string]Level{
		"debug": DEBUG, "INFO": INFO, "Warning": WARN, "error": ERROR,
	}
	for s, want := range cases {
		got, err := LevelFromString(s)
		if err != nil {
			t.Fatalf("LevelFromString(%q): %v", s, err)
		}
		if got != want {
			t.Fatalf("LevelFromString(%q) = %v, want %v", s, got, want)
		}
	}
	if _, err := LevelFromString("bogus"); err == nil {
		t.Fatal("expected error for unrecognized level")
	}
}

func TestKVLoggerPrependsBoundParams(t *testing.T) {
	lg, b := newTestLogger()
	kl := NewKV(lg, KV("component", "router"))
	kl.Info("routed")
	out := b.String()
	if !strings.Contains(out, "component=") || !strings.Contains(out, "router") {
		t.Fatalf("expected bound component param in output, got %q", out)
	}
}

func TestAddWriterFansOutToBoth(t *testing.T) {
	lg, b1 := newTestLogger()
	b2 := &bytes.Buffer{}
	lg.AddWriter(buf{b2})
	lg.Info("fan out")
	if !strings.Contains(b1.String(), "fan out") || !strings.Contains(b2.String(), "fan out") {
		t.Fatal("expected both writers to receive the line")
	}
}

func TestKVErrWrapsErrorValue(t *testing.T) {
	sd := KVErr(errTest{})
	if sd.Name != "error" {
		t.Fatalf("expected param name \"error\", got %q", sd.Name)
	}
}

type errTest struct{}

func (errTest) Error() string { return "boom" }
