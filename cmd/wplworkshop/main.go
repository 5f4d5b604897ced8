// Command wplworkshop is the WPL workshop CLI: run a single compiled rule
// against a file of sample events, one line per event, printing the
// resulting record (kv-formatted) or a miss report per line. It never
// starts the pipeline; it exists for rule authors iterating on one .wpl
// file.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/gravwell/wplrouter/sink/format"
	"github.com/gravwell/wplrouter/wpl/eval"
	"github.com/gravwell/wplrouter/wpl/parse"
)

const (
	exitOK         = 0
	exitParseError = 1
	exitConfigErr  = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inPath := fs.String("in", "", "input file, one event per line")
	rulePath := fs.String("rule", "", "path to a .wpl rule file")
	if err := fs.Parse(args); err != nil {
		return exitConfigErr
	}
	if *inPath == "" || *rulePath == "" {
		fmt.Fprintln(stderr, "wplworkshop: -in and -rule are required")
		return exitConfigErr
	}

	ruleSrc, err := os.ReadFile(*rulePath)
	if err != nil {
		fmt.Fprintf(stderr, "wplworkshop: reading rule: %v\n", err)
		return exitConfigErr
	}
	rule, err := parse.ParseRuleSource(string(ruleSrc))
	if err != nil {
		fmt.Fprintf(stderr, "wplworkshop: rule syntax error: %v\n", err)
		return exitParseError
	}

	in, err := os.Open(*inPath)
	if err != nil {
		fmt.Fprintf(stderr, "wplworkshop: opening input: %v\n", err)
		return exitConfigErr
	}
	defer in.Close()

	fm := format.KVFormatter{}
	sawParseError := false
	scn := bufio.NewScanner(in)
	scn.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0
	for scn.Scan() {
		lineNo++
		line := scn.Text()
		if line == "" {
			continue
		}
		rec, err := eval.Execute(rule, line)
		if err != nil {
			sawParseError = true
			fmt.Fprintf(stdout, "%d: miss: %v\n", lineNo, err)
			continue
		}
		b, err := fm.Format(rec)
		if err != nil {
			sawParseError = true
			fmt.Fprintf(stdout, "%d: format error: %v\n", lineNo, err)
			continue
		}
		fmt.Fprintf(stdout, "%d: %s", lineNo, b)
	}
	if err := scn.Err(); err != nil {
		fmt.Fprintf(stderr, "wplworkshop: reading input: %v\n", err)
		return exitConfigErr
	}
	if sawParseError {
		return exitParseError
	}
	return exitOK
}
