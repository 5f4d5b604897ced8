// Package entry implements RawEvent, the unit of work a source hands to
// the collector: a small, cheaply-movable struct that owns its payload
// until a parser worker consumes it.
package entry

import "time"

// Seq is a monotonically increasing per-source sequence number, assigned
// by the source adapter when it reads the event.
type Seq uint64

// RawEvent is produced by a source adapter and owned exclusively by
// whichever pipeline stage currently holds it. It is never shared
// mutably — stages move it by value (or by single-owner pointer) across
// channels and it is dropped after the parser consumes it or the
// collector coalesces it away.
type RawEvent struct {
	SeqNum    Seq
	SourceKey string
	Payload   []byte
	Tags      map[string]string
	Received  time.Time
}

// Key returns the event's sequence number, for code that only cares
// about ordering, not the full event.
func (e RawEvent) Key() Seq { return e.SeqNum }

// Size approximates the event's footprint: payload bytes plus the length
// of every tag key and value.
func (e RawEvent) Size() int {
	n := len(e.Payload)
	for k, v := range e.Tags {
		n += len(k) + len(v)
	}
	return n
}

// Batch is a contiguous group of RawEvents pulled from one source in a
// single fetch. Sources always hand batches, never individual events, to
// the collector — even a batch of one.
type Batch struct {
	SourceKey string
	Events    []RawEvent
}

func (b Batch) Len() int { return len(b.Events) }

// Append concatenates another batch's events onto b, used by the
// collector's coalescing step. The caller's batch slice is left intact;
// the callee controls its own backing array growth.
func (b *Batch) Append(o Batch) {
	b.Events = append(b.Events, o.Events...)
}
