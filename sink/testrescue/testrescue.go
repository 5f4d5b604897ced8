// Package testrescue implements the test_rescue sink: it captures every
// record's payload in memory instead of sending it anywhere, so an
// end-to-end test can assert on what a pipeline actually produced.
package testrescue

import (
	"sync"

	"github.com/gravwell/wplrouter/sink"
)

// Sink stores every received sink.Record, in arrival order, behind a
// mutex so it can be safely read from a test goroutine while a pipeline
// writes to it concurrently.
type Sink struct {
	name string

	mu   sync.Mutex
	recs []sink.Record
}

func New(name string) *Sink { return &Sink{name: name} }

func (s *Sink) Name() string { return s.name }

func (s *Sink) Send(rec sink.Record) bool {
	s.mu.Lock()
	s.recs = append(s.recs, rec)
	s.mu.Unlock()
	return true
}

func (s *Sink) Close() error { return nil }

// Records returns a snapshot of every record captured so far.
func (s *Sink) Records() []sink.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sink.Record, len(s.recs))
	copy(out, s.recs)
	return out
}

// Reset clears captured records, for reuse across test cases.
func (s *Sink) Reset() {
	s.mu.Lock()
	s.recs = nil
	s.mu.Unlock()
}
