package collector

import (
	"context"
	"time"

	"github.com/gravwell/wplrouter/entry"
	"github.com/gravwell/wplrouter/internal/wlog"
)

const (
	// RoundBatch bounds one burst's sub-round count.
	RoundBatch = 10
	// BurstMax is the per-fetch batch ceiling requested from a source.
	BurstMax = 16
	// HiWatermark stops pulling (dispatch-only) once pending exceeds it.
	HiWatermark = 3 * BurstMax
	// FetchTimeout bounds a single source fetch attempt.
	FetchTimeout = 300 * time.Millisecond
	// CoalesceThreshold triggers batch coalescing once pending reaches it.
	CoalesceThreshold = 32
	// CoalesceEventCap bounds one coalesced batch's event count.
	CoalesceEventCap = 128

	backoffBase = 2 * time.Millisecond
	backoffCap  = 8
)

// Source is one collector input adapter: a file tail, a network listener,
// anything that can be asked for its next batch of RawEvents within a
// bounded timeout. Fetch returning SrcMiss with an empty batch means "no
// data right now, not an error"; SrcTerminal means the source is done for
// good (EOF, unrecoverable error).
type Source interface {
	Key() string
	Fetch(ctx context.Context, timeout time.Duration) (entry.Batch, SrcStatus, error)
}

// Dispatcher is the parser-facing side of the source→parser channel.
// TrySend must never block; a false return means the channel is full and
// the Picker should back off.
type Dispatcher interface {
	TrySend(entry.Batch) bool
}

// Picker runs the burst loop for exactly one Source.
type Picker struct {
	lg *wlog.Logger
}

func NewPicker(lg *wlog.Logger) *Picker { return &Picker{lg: lg} }

// Run drives src until ctx is canceled or the source goes Terminal. It
// never returns an error: fetch errors are logged and treated as a Miss
// for pacing purposes, so a troublesome source never busy-loops or takes
// the process down with it.
func (p *Picker) Run(ctx context.Context, src Source, disp Dispatcher) {
	var pending []entry.Batch
	backoffStep := 1

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		rs := NewRoundStat()
		for !rs.TerminalByRound(RoundBatch) {
			if len(pending) > HiWatermark {
				rs.ToDistPending()
			} else {
				b, status, err := src.Fetch(ctx, FetchTimeout)
				if err != nil && status == SrcReady {
					status = SrcMiss
				}
				rs.UpSrcStatus(status)
				if err != nil && p.lg != nil {
					p.lg.Warn("source fetch error", wlog.KV("source", src.Key()), wlog.KVErr(err))
				}
				if status == SrcTerminal {
					rs.ToDistTerminal()
				} else if b.Len() > 0 {
					pending = append(pending, b)
				}
			}

			if len(pending) >= CoalesceThreshold {
				pending = Coalesce(pending, CoalesceEventCap)
			}

			delivered := 0
			for len(pending) > 0 {
				if disp.TrySend(pending[0]) {
					pending = pending[1:]
					delivered++
					continue
				}
				rs.ToDistPending()
				break
			}
			rs.AddProc(delivered)

			if rs.IsStop() {
				return
			}
			if rs.NeedWait(len(pending)) {
				sleepBackoff(ctx, backoffStep)
				backoffStep = min(backoffStep*2, backoffCap)
			} else {
				backoffStep = 1
			}
		}
	}
}

func sleepBackoff(ctx context.Context, step int) {
	d := backoffBase * time.Duration(step)
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Coalesce merges small adjacent batches sharing a source key into fewer,
// larger ones capped at maxEvents. Batches from different source keys are
// never merged together.
func Coalesce(pending []entry.Batch, maxEvents int) []entry.Batch {
	if len(pending) == 0 {
		return pending
	}
	out := make([]entry.Batch, 0, len(pending))
	cur := pending[0]
	for _, b := range pending[1:] {
		if cur.SourceKey == b.SourceKey && len(cur.Events)+len(b.Events) <= maxEvents {
			cur.Events = append(cur.Events, b.Events...)
			continue
		}
		out = append(out, cur)
		cur = b
	}
	out = append(out, cur)
	return out
}
