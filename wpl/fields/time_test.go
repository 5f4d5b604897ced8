package fields

import (
	"testing"

	"github.com/gravwell/wplrouter/record"
)

func TestParseTimeCLFFastPath(t *testing.T) {
	ts, kind, ok := ParseTime("[06/Aug/2019:12:12:19 +0800]")
	if !ok {
		t.Fatal("expected CLF timestamp to parse")
	}
	if kind != record.TimeCLF {
		t.Fatalf("expected TimeCLF kind, got %v", kind)
	}
	if ts.Year() != 2019 || ts.Month().String() != "August" || ts.Day() != 6 {
		t.Fatalf("unexpected date components: %v", ts)
	}
}

func TestParseTimeRFC3339(t *testing.T) {
	ts, kind, ok := ParseTime("2024-01-02T03:04:05Z")
	if !ok || kind != record.TimeRFC3339 {
		t.Fatalf("expected RFC3339 parse, got ok=%v kind=%v", ok, kind)
	}
	if ts.Year() != 2024 {
		t.Fatalf("unexpected year: %d", ts.Year())
	}
}

func TestParseTimeUnixSeconds(t *testing.T) {
	ts, kind, ok := ParseTime("1700000000")
	if !ok || kind != record.TimeTIMESTAMP {
		t.Fatalf("expected unix timestamp parse, got ok=%v kind=%v", ok, kind)
	}
	if ts.Unix() != 1700000000 {
		t.Fatalf("unexpected unix value: %d", ts.Unix())
	}
}

func TestParseTimeRejectsGarbage(t *testing.T) {
	if _, _, ok := ParseTime("not a time"); ok {
		t.Fatal("expected ok=false for unparseable text")
	}
}
