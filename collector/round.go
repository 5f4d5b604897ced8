// Package collector implements the Picker burst loop: a bounded
// pull-then-dispatch cycle per source with high-watermark backpressure
// (pulling pauses while more than HiWatermark batches are pending; there
// is no separate low watermark) and exponential post-policy backoff.
package collector

// DistStatus is the dispatch-side state for one round.
type DistStatus uint8

const (
	DistReady DistStatus = iota
	DistPending
	DistTerminal
)

func (d DistStatus) IsPending() bool { return d == DistPending }

// SrcStatus is the source-side state for one round.
type SrcStatus uint8

const (
	SrcReady SrcStatus = iota
	SrcMiss
	SrcTerminal
)

func (s SrcStatus) IsMiss() bool { return s == SrcMiss }

// RoundStat tracks one burst round's progress: batches delivered, merge
// count (test/diagnostic), sub-round index, and the dispatch/source
// status pair that decides whether the Picker should sleep or stop.
type RoundStat struct {
	SendCnt    int
	MergeCount int
	RoundIdx   int
	Dist       DistStatus
	Src        SrcStatus
}

func NewRoundStat() RoundStat { return RoundStat{} }

// TerminalByRound reports whether round_idx has already reached max,
// then increments round_idx — the sub-round counter that bounds one
// burst's length so a single source can never starve the others.
func (r *RoundStat) TerminalByRound(max int) bool {
	isEnd := r.RoundIdx >= max
	r.RoundIdx++
	return isEnd
}

func (r *RoundStat) ToDistPending()  { r.Dist = DistPending }
func (r *RoundStat) ToDistReady()    { r.Dist = DistReady }
func (r *RoundStat) ToDistTerminal() { r.Dist = DistTerminal }

func (r RoundStat) IsStop() bool {
	return r.Src == SrcTerminal || r.Dist == DistTerminal
}

// Merge folds other into the receiver: send counts accumulate, merge
// count increments by other's plus one, and the latest dist/src status
// wins (the caller merges in round-completion order).
func (r RoundStat) Merge(other RoundStat) RoundStat {
	r.AddProc(other.SendCnt)
	r.MergeCount += other.MergeCount + 1
	r.Dist = other.Dist
	r.Src = other.Src
	return r
}

// NeedWait reports whether the Picker should sleep before its next
// sub-round: nothing got delivered and the dispatcher is pending (the
// parser side is congested), or nothing is pending and the source missed
// (no data available upstream) — either way a busy loop helps no one.
func (r RoundStat) NeedWait(haveCnt int) bool {
	return (r.SendCnt == 0 && r.Dist.IsPending()) || (haveCnt == 0 && r.Src.IsMiss())
}

func (r *RoundStat) AddProc(delivered int) { r.SendCnt += delivered }

func (r *RoundStat) UpSrcStatus(status SrcStatus) { r.Src = status }
