// Package blackhole implements a stats-only sink: it accepts every
// record, counts them, and writes nothing.
package blackhole

import (
	"sync/atomic"

	"github.com/gravwell/wplrouter/sink"
)

// Sink discards every record it receives, tracking only a running count
// for the monitor infra group to report.
type Sink struct {
	name     string
	accepted atomic.Uint64
}

func New(name string) *Sink { return &Sink{name: name} }

func (s *Sink) Name() string { return s.name }

func (s *Sink) Send(sink.Record) bool {
	s.accepted.Add(1)
	return true
}

func (s *Sink) Close() error { return nil }

// Accepted returns the number of records received since construction.
func (s *Sink) Accepted() uint64 { return s.accepted.Load() }
