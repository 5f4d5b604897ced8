package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunSucceedsOnMatchingInput(t *testing.T) {
	rulePath := writeTemp(t, "rule.wpl", `rule web { (ip,digit)<,> }`)
	inPath := writeTemp(t, "in.txt", "10.0.0.1,200\n")

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	defer w.Close()

	code := run([]string{"-in", inPath, "-rule", rulePath}, w, w)
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d", code)
	}
}

func TestRunReturnsExitParseErrorOnSyntaxError(t *testing.T) {
	rulePath := writeTemp(t, "rule.wpl", `rule web { this is not valid wpl`)
	inPath := writeTemp(t, "in.txt", "anything\n")

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	defer w.Close()

	code := run([]string{"-in", inPath, "-rule", rulePath}, w, w)
	if code != exitParseError {
		t.Fatalf("expected exit 1, got %d", code)
	}
}

func TestRunReturnsExitConfigErrorOnMissingFlags(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	defer w.Close()

	code := run([]string{}, w, w)
	if code != exitConfigErr {
		t.Fatalf("expected exit 2, got %d", code)
	}
}

func TestRunReturnsExitConfigErrorOnMissingInputFile(t *testing.T) {
	rulePath := writeTemp(t, "rule.wpl", `rule web { (ip) }`)

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	defer w.Close()

	code := run([]string{"-in", filepath.Join(t.TempDir(), "missing.txt"), "-rule", rulePath}, w, w)
	if code != exitConfigErr {
		t.Fatalf("expected exit 2, got %d", code)
	}
}
