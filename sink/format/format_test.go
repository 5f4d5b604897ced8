package format

import (
	"strings"
	"testing"

	"github.com/gravwell/wplrouter/record"
)

func sampleRecord() *record.DataRecord {
	r := record.NewRecord(2)
	r.Add(record.Intern("host"), record.Chars, record.NewChars("web-01"))
	r.Add(record.Intern("status"), record.Digit, record.NewDigit(200))
	return r
}

func TestRawFormatterJoinsValuesWithSpace(t *testing.T) {
	out, err := RawFormatter{}.Format(sampleRecord())
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if got := strings.TrimSuffix(string(out), "\n"); got != "web-01 200" {
		t.Fatalf("unexpected raw output: %q", got)
	}
}

func TestKVFormatterEmitsNameEqualsValue(t *testing.T) {
	out, err := KVFormatter{}.Format(sampleRecord())
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, "host=web-01") || !strings.Contains(s, "status=200") {
		t.Fatalf("unexpected kv output: %q", s)
	}
}

func TestJSONFormatterProducesValidObject(t *testing.T) {
	out, err := JSONFormatter{}.Format(sampleRecord())
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, `"host":"web-01"`) || !strings.Contains(s, `"status":200`) {
		t.Fatalf("unexpected json output: %q", s)
	}
}

func TestRFC3164FormatterWrapsInnerOutputWithPRIHeader(t *testing.T) {
	f := NewRFC3164(KVFormatter{}, "wplrouter")
	out, err := f.Format(sampleRecord())
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	s := string(out)
	if !strings.HasPrefix(s, "<134>") {
		t.Fatalf("expected local0.info PRI <134>, got %q", s)
	}
	if !strings.Contains(s, "wplrouter: host=web-01 status=200") {
		t.Fatalf("expected wrapped kv body, got %q", s)
	}
}

func TestByNameDefaultsToRaw(t *testing.T) {
	if _, ok := ByName("nonsense").(RawFormatter); !ok {
		t.Fatal("expected unrecognized formatter name to default to RawFormatter")
	}
	if _, ok := ByName(JSON).(JSONFormatter); !ok {
		t.Fatal("expected \"json\" to resolve to JSONFormatter")
	}
}
