// Package sink defines the writer contract shared by every sink
// implementation (file, net, blackhole, test_rescue) and the on-the-wire
// Record the router hands to them.
package sink

import (
	"github.com/gravwell/wplrouter/entry"
	"github.com/gravwell/wplrouter/record"
)

// Record is the unit a router pushes to a sink's writer channel. Record
// is shared (never mutated) across every sink in a fan-out group — Go's
// garbage collector keeps the pointed-to DataRecord alive as long as any
// sink still holds it, so no refcounting wrapper is needed.
type Record struct {
	Seq       entry.Seq
	SourceKey string
	Data      *record.DataRecord
}

// OverflowPolicy governs what a sink's writer does when its channel is
// full: block the caller, drop the incoming record, or evict the oldest
// queued one to make room.
type OverflowPolicy uint8

const (
	Block OverflowPolicy = iota
	DropNewest
	DropOldest
)

// Writer is implemented by every concrete sink. Send must never block the
// caller for longer than the sink's configured overflow policy allows;
// Close drains and releases any owned resources (a socket, a file
// handle).
type Writer interface {
	Name() string
	Send(Record) bool
	Close() error
}
