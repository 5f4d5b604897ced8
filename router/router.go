// Package router implements the dispatch stage: it holds resolved sink
// groups, evaluates each group's filter expression, and fans a parsed
// record out to every matching group's sinks, falling back to the infra
// groups (default/miss/residue/error/monitor) when nothing matches.
package router

import (
	"github.com/gravwell/wplrouter/record"
	"github.com/gravwell/wplrouter/router/filter"
	"github.com/gravwell/wplrouter/sink"
	"github.com/gravwell/wplrouter/stats"
	"github.com/gravwell/wplrouter/worker"
)

// SinkGroup is a named set of sinks receiving the same record stream,
// gated by an optional filter expression (absent means "always matches").
type SinkGroup struct {
	Name    string
	Filter  filter.Expr
	Writers []sink.Writer
}

// Infra group names, per the GLOSSARY.
const (
	InfraDefault = "default"
	InfraMiss    = "miss"
	InfraResidue = "residue"
	InfraError   = "error"
	InfraMonitor = "monitor"
)

// Router dispatches worker.Parsed/worker.Miss values to business groups
// and the infra fallback groups. It satisfies worker.Router directly so a
// Pool can push into it without an adapter.
type Router struct {
	Groups []SinkGroup
	Infra  map[string]sink.Writer
	Stats  *stats.Collector
	cache  *filter.MatchCache
}

// New builds a Router. cache should be owned by the calling worker
// goroutine (see router/filter.MatchCache doc) — callers that dispatch
// from multiple goroutines should give each its own Router wrapping a
// shared Groups/Infra but a private MatchCache; see NewPerWorker.
func New(groups []SinkGroup, infra map[string]sink.Writer, st *stats.Collector) *Router {
	return &Router{Groups: groups, Infra: infra, Stats: st, cache: filter.NewMatchCache()}
}

// NewPerWorker shares this Router's Groups/Infra/Stats but gives the
// returned Router its own wildcard match cache, so N parser workers can
// each dispatch concurrently without contending on one LRU.
func (r *Router) NewPerWorker() *Router {
	return &Router{Groups: r.Groups, Infra: r.Infra, Stats: r.Stats, cache: filter.NewMatchCache()}
}

// SendParsed implements worker.Router.
func (r *Router) SendParsed(p worker.Parsed) {
	matched := 0
	for _, g := range r.Groups {
		if g.Filter != nil && !g.Filter.Eval(p.Record, r.cache) {
			continue
		}
		matched++
		rec := sink.Record{Seq: p.Seq, SourceKey: p.SourceKey, Data: p.Record}
		for _, w := range g.Writers {
			w.Send(rec)
		}
		if r.Stats != nil {
			r.Stats.Incr("sink", g.Name, "suc")
		}
	}
	if matched == 0 {
		r.sendInfra(InfraDefault, sink.Record{Seq: p.Seq, SourceKey: p.SourceKey, Data: p.Record})
	}
	if r.Stats != nil {
		r.Stats.Incr("parse", p.SourceKey, "in")
	}
}

// SendMiss implements worker.Router: a parse failure is routed to the
// `miss` infra group as a record carrying the error report (field
// `error`, when worker.Miss.Err is set) and the source excerpt (field
// `excerpt`), which the miss sink's formatter renders like any record.
func (r *Router) SendMiss(m worker.Miss) {
	data := record.NewRecord(2)
	if m.Err != nil {
		data.Add(record.Intern("error"), record.Chars, record.NewChars(m.Err.Error()))
	}
	data.Add(record.Intern("excerpt"), record.Chars, record.NewChars(m.Excerpt))
	r.sendInfra(InfraMiss, sink.Record{Seq: m.Seq, SourceKey: m.SourceKey, Data: data})
	if r.Stats != nil {
		r.Stats.Incr("parse", m.SourceKey, "end")
	}
}

func (r *Router) sendInfra(name string, rec sink.Record) {
	w, ok := r.Infra[name]
	if !ok {
		return
	}
	w.Send(rec)
}
