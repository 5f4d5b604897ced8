// Package file implements a collector.Source that tails a growing file,
// handing each newly appended line to the collector as one RawEvent. The
// offset tracking is in-memory only; a daemon restart mid-file re-reads
// from the file's current size rather than resuming an earlier position.
package file

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gravwell/wplrouter/collector"
	"github.com/gravwell/wplrouter/entry"
)

// maxReadBytes bounds one Fetch's underlying file read, keeping a single
// call cheap even if a very large amount of data landed between polls.
const maxReadBytes = 1 << 20

// Source tails path, emitting one RawEvent per newline-terminated line
// appended since the last Fetch. Fetch holds an internal mutex for its
// whole run, so concurrent calls are serialized rather than interleaved.
type Source struct {
	key  string
	path string
	tags map[string]string

	mu      sync.Mutex
	offset  int64
	pending []byte
	seq     entry.Seq
}

// Open begins tailing path from its current end-of-file: only lines
// appended after Open returns are ever emitted, matching the "new data
// only" expectation of a log follower rather than a one-shot file reader.
func Open(key, path string, tags map[string]string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return &Source{key: key, path: path, tags: tags, offset: st.Size()}, nil
}

func (s *Source) Key() string { return s.key }

// Fetch implements collector.Source. timeout is accepted for interface
// compatibility; reading a regular file never blocks long enough to need
// it, so Fetch returns as soon as it has read whatever is currently
// available.
func (s *Source) Fetch(ctx context.Context, timeout time.Duration) (entry.Batch, collector.SrcStatus, error) {
	select {
	case <-ctx.Done():
		return entry.Batch{}, collector.SrcTerminal, ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return entry.Batch{}, collector.SrcMiss, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return entry.Batch{}, collector.SrcMiss, err
	}
	size := st.Size()
	if size < s.offset {
		// File shrank: most likely truncated or rotated out from under us.
		// Restart from the beginning rather than erroring forever.
		s.offset = 0
		s.pending = nil
	}
	if size == s.offset {
		return entry.Batch{}, collector.SrcMiss, nil
	}

	n := size - s.offset
	if n > maxReadBytes {
		n = maxReadBytes
	}
	buf := make([]byte, n)
	if _, err := f.ReadAt(buf, s.offset); err != nil && err != io.EOF {
		return entry.Batch{}, collector.SrcMiss, err
	}

	data := append(s.pending, buf...)
	lines := bytes.Split(data, []byte("\n"))
	// The final element is either empty (data ended with '\n') or an
	// incomplete line still being written; either way it is not yet a
	// complete event and is kept as pending for the next Fetch.
	complete := lines[:len(lines)-1]
	tail := lines[len(lines)-1]

	if len(complete) > collector.BurstMax {
		overflow := complete[collector.BurstMax:]
		complete = complete[:collector.BurstMax]
		var rebuilt []byte
		for i, l := range overflow {
			if i > 0 {
				rebuilt = append(rebuilt, '\n')
			}
			rebuilt = append(rebuilt, l...)
		}
		rebuilt = append(rebuilt, '\n')
		rebuilt = append(rebuilt, tail...)
		tail = rebuilt
	}

	events := make([]entry.RawEvent, 0, len(complete))
	for _, l := range complete {
		if len(l) == 0 {
			continue
		}
		s.seq++
		events = append(events, entry.RawEvent{
			SeqNum:    s.seq,
			SourceKey: s.key,
			Payload:   append([]byte(nil), l...),
			Tags:      s.tags,
			Received:  time.Now(),
		})
	}
	// Every byte read is now either emitted or held in pending, so the
	// next read starts right after this one.
	s.offset += n
	s.pending = append([]byte(nil), tail...)

	if len(events) == 0 {
		return entry.Batch{}, collector.SrcMiss, nil
	}
	return entry.Batch{SourceKey: s.key, Events: events}, collector.SrcReady, nil
}
