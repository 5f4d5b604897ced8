// Package worker implements the parser-worker pool: a fixed number of
// goroutines draining the parser channel, running a compiled WPL rule
// per event, and forwarding parsed records to the router.
package worker

import (
	"context"
	"sync"

	"github.com/gravwell/wplrouter/entry"
	"github.com/gravwell/wplrouter/internal/wlog"
	"github.com/gravwell/wplrouter/internal/wplerr"
	"github.com/gravwell/wplrouter/oml"
	"github.com/gravwell/wplrouter/record"
	"github.com/gravwell/wplrouter/wpl/ast"
	"github.com/gravwell/wplrouter/wpl/eval"
)

// RuleSet resolves an event to the compiled rule that should parse it.
// Source keys are matched first exactly, falling back to a glob match
// against rule-file name patterns — resolution itself lives in
// internal/ruleset; worker only needs the result.
type RuleSet interface {
	RuleFor(sourceKey string) (*ast.Rule, bool)
}

// Parsed is the unit handed to the router: the event's sequence number,
// its resulting record, and its originating source key for provenance in
// the error/miss infra groups.
type Parsed struct {
	Seq       entry.Seq
	SourceKey string
	Record    *record.DataRecord
}

// Miss is emitted instead of Parsed when a rule fails to match or no rule
// is resolved for the source key.
type Miss struct {
	Seq       entry.Seq
	SourceKey string
	Err       error
	Excerpt   string
}

// Router is the narrow interface worker needs from the dispatcher: two
// non-blocking sends.
type Router interface {
	SendParsed(Parsed)
	SendMiss(Miss)
}

// Pool is a fixed set of N goroutines sharing one input channel —
// interchangeable consumers of a single channel rather than one
// goroutine per destination.
type Pool struct {
	n       int
	in      <-chan entry.Batch
	rules   RuleSet
	oml     oml.Transformer
	router  Router
	lg      *wlog.Logger
	copyRaw bool
}

// New builds a Pool of n workers reading from in. oml may be nil, in
// which case oml.Noop{} is used.
func New(n int, in <-chan entry.Batch, rules RuleSet, transformer oml.Transformer, router Router, lg *wlog.Logger) *Pool {
	if transformer == nil {
		transformer = oml.Noop{}
	}
	if n < 1 {
		n = 1
	}
	return &Pool{n: n, in: in, rules: rules, oml: transformer, router: router, lg: lg}
}

// Run blocks until ctx is canceled and all in-flight workers drain.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(p.n)
	for i := 0; i < p.n; i++ {
		go func() {
			defer wg.Done()
			p.loop(ctx)
		}()
	}
	wg.Wait()
}

func (p *Pool) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case b, ok := <-p.in:
			if !ok {
				return
			}
			for _, ev := range b.Events {
				p.process(ev)
			}
		}
	}
}

func (p *Pool) process(ev entry.RawEvent) {
	rule, ok := p.rules.RuleFor(ev.SourceKey)
	if !ok {
		p.router.SendMiss(Miss{Seq: ev.SeqNum, SourceKey: ev.SourceKey, Err: wplerr.New(wplerr.Semantic, errNoRule(ev.SourceKey))})
		return
	}
	rec, err := eval.Execute(rule, string(ev.Payload))
	if err != nil {
		excerpt := ev.Payload
		if len(excerpt) > 64 {
			excerpt = excerpt[:64]
		}
		if p.lg != nil {
			p.lg.Warn("parse failure", wlog.KV("source", ev.SourceKey), wlog.KVErr(err))
		}
		p.router.SendMiss(Miss{Seq: ev.SeqNum, SourceKey: ev.SourceKey, Err: err, Excerpt: string(excerpt)})
		return
	}

	out, transformed, err := p.oml.Transform(rec)
	if err != nil {
		p.router.SendMiss(Miss{Seq: ev.SeqNum, SourceKey: ev.SourceKey, Err: wplerr.New(wplerr.RuntimeLogic, err)})
		return
	}
	if transformed {
		rec = out
	}

	p.router.SendParsed(Parsed{Seq: ev.SeqNum, SourceKey: ev.SourceKey, Record: rec})
}

type noRuleErr struct{ key string }

func (e noRuleErr) Error() string { return "no rule resolved for source key " + e.key }

func errNoRule(key string) error { return noRuleErr{key: key} }
