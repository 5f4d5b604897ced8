package record

import "testing"

func TestAddAndGetFirstInsertionWins(t *testing.T) {
	r := NewRecord(2)
	ip := Intern("ip")
	r.Add(ip, Chars, NewChars("10.0.0.1"))
	r.Add(ip, Chars, NewChars("10.0.0.2"))

	f, ok := r.Get("ip")
	if !ok {
		t.Fatal("expected field to exist")
	}
	if f.Value.Str != "10.0.0.1" {
		t.Fatalf("expected first insertion to win, got %q", f.Value.Str)
	}
}

func TestGetMissingFieldReturnsFalse(t *testing.T) {
	r := NewRecord(0)
	if _, ok := r.Get("nope"); ok {
		t.Fatal("expected ok=false for missing field")
	}
}

func TestIndexRebuildsAfterAdd(t *testing.T) {
	r := NewRecord(0)
	r.Add(Intern("a"), Chars, NewChars("1"))
	if _, ok := r.Index("a"); !ok {
		t.Fatal("expected index to find field a")
	}
	r.Add(Intern("b"), Chars, NewChars("2"))
	i, ok := r.Index("b")
	if !ok || i != 1 {
		t.Fatalf("expected b at index 1, got i=%d ok=%v", i, ok)
	}
}

func TestCloneIsIndependentSlice(t *testing.T) {
	r := NewRecord(1)
	r.Add(Intern("a"), Chars, NewChars("1"))
	c := r.Clone()
	c.Fields[0].Value = NewChars("mutated")

	if r.Fields[0].Value.Str != "1" {
		t.Fatal("expected clone mutation not to affect original")
	}
}
