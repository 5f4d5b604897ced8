package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gravwell/wplrouter/entry"
	"github.com/gravwell/wplrouter/wpl/ast"
	"github.com/gravwell/wplrouter/wpl/parse"
)

type fixedRuleSet struct{ r *ast.Rule }

func (f fixedRuleSet) RuleFor(string) (*ast.Rule, bool) { return f.r, true }

type recordingRouter struct {
	mu     sync.Mutex
	parsed []Parsed
	misses []Miss
}

func (r *recordingRouter) SendParsed(p Parsed) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsed = append(r.parsed, p)
}

func (r *recordingRouter) SendMiss(m Miss) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.misses = append(r.misses, m)
}

func TestPoolParsesMatchingEvents(t *testing.T) {
	rule, err := parse.ParseStatementSource(`(chars)`)
	if err != nil {
		t.Fatalf("parse rule: %v", err)
	}
	in := make(chan entry.Batch, 1)
	router := &recordingRouter{}
	pool := New(2, in, fixedRuleSet{rule}, nil, router, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		pool.Run(ctx)
		close(done)
	}()

	in <- entry.Batch{SourceKey: "s", Events: []entry.RawEvent{{SeqNum: 1, SourceKey: "s", Payload: []byte("hello")}}}
	close(in)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not drain after channel close")
	}
	cancel()

	router.mu.Lock()
	defer router.mu.Unlock()
	if len(router.parsed) != 1 {
		t.Fatalf("parsed = %d, want 1 (misses=%d)", len(router.parsed), len(router.misses))
	}
	f, ok := router.parsed[0].Record.Get("chars")
	if !ok || f.Value.Str != "hello" {
		t.Fatalf("chars field = %+v", f.Value)
	}
}

type noRuleSet struct{}

func (noRuleSet) RuleFor(string) (*ast.Rule, bool) { return nil, false }

func TestPoolMissesUnresolvedSource(t *testing.T) {
	in := make(chan entry.Batch, 1)
	router := &recordingRouter{}
	pool := New(1, in, noRuleSet{}, nil, router, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		pool.Run(ctx)
		close(done)
	}()

	in <- entry.Batch{SourceKey: "s", Events: []entry.RawEvent{{SeqNum: 1, SourceKey: "s", Payload: []byte("x")}}}
	close(in)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not drain")
	}
	cancel()

	router.mu.Lock()
	defer router.mu.Unlock()
	if len(router.misses) != 1 {
		t.Fatalf("misses = %d, want 1", len(router.misses))
	}
}
