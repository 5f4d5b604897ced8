package net

import (
	"context"
	"fmt"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/gravwell/wplrouter/internal/wlog"
	"github.com/gravwell/wplrouter/sink"
	"github.com/gravwell/wplrouter/sink/format"
)

// Writer is a TCP (or syslog-over-TCP) sink.Writer implementing OS-aware
// send-queue backoff. One background goroutine owns the connection and
// every piece of writer state (avg
// write length, cached SO_SNDBUF, backoff) exclusively, matching the
// "sink writer state owned by the writer task" invariant.
type Writer struct {
	name    string
	addr    string
	fmtr    format.Formatter
	policy  sink.OverflowPolicy
	backoff BackpressureCfg

	ch   chan sink.Record
	done chan struct{}
	wg   sync.WaitGroup
	lg   *wlog.Logger

	// test hooks — overriding the kernel probes lets this package's
	// tests exercise backoff decisions deterministically without a
	// real socket under pressure.
	pendingOverride *int
	sndbufOverride  *int
	pendingQueries  int // test-only: counts queryPendingBytes invocations
}

// New builds a Writer dialing addr lazily on first Run. chanCap sizes
// the bounded writer channel.
func New(name, addr string, formatter format.Formatter, policy sink.OverflowPolicy, backoff BackpressureCfg, chanCap int, lg *wlog.Logger) *Writer {
	if formatter == nil {
		formatter = format.RawFormatter{}
	}
	if chanCap < 1 {
		chanCap = 1
	}
	return &Writer{
		name:    name,
		addr:    addr,
		fmtr:    formatter,
		policy:  policy,
		backoff: backoff,
		ch:      make(chan sink.Record, chanCap),
		done:    make(chan struct{}),
		lg:      lg,
	}
}

func (w *Writer) Name() string { return w.name }

// Send implements sink.Writer, applying the configured OverflowPolicy
// when the channel is full.
func (w *Writer) Send(rec sink.Record) bool {
	select {
	case w.ch <- rec:
		return true
	default:
	}
	switch w.policy {
	case sink.DropNewest:
		return false
	case sink.DropOldest:
		select {
		case <-w.ch:
		default:
		}
		select {
		case w.ch <- rec:
			return true
		default:
			return false
		}
	default:
		w.ch <- rec
		return true
	}
}

// Run dials addr and drains the writer channel until ctx is canceled,
// reconnecting with bounded exponential backoff (100ms -> 5s) on
// connection loss.
func (w *Writer) Run(ctx context.Context) {
	w.wg.Add(1)
	defer w.wg.Done()

	state := &connState{}
	delay := ReconnectMin
	for {
		conn, err := net.Dial("tcp", w.addr)
		if err != nil {
			if w.lg != nil {
				w.lg.Error("net sink connect failure", wlog.KV("sink", w.name), wlog.KVErr(err))
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay = nextDelay(delay)
			continue
		}
		delay = ReconnectMin
		state.conn = conn
		lost := w.drive(ctx, state)
		conn.Close()
		if !lost {
			return
		}
	}
}

func nextDelay(d time.Duration) time.Duration {
	d *= 2
	if d > ReconnectMax {
		d = ReconnectMax
	}
	return d
}

// connState holds the per-connection writer state the background
// goroutine owns exclusively while driving one TCP connection.
type connState struct {
	conn            net.Conn
	avgWriteLen     float64
	cachedSndbuf    int
	sndbufKnown     bool
	cachedPending   int
	pendingKnown    bool
	bytesSinceProbe int
	lastProbeAt     time.Time
	sentCnt         uint64
}

// drive runs the send loop over one live connection. It returns true if
// the connection was lost and a reconnect should be attempted, false if
// ctx was canceled (caller should stop entirely).
func (w *Writer) drive(ctx context.Context, st *connState) bool {
	for {
		select {
		case <-ctx.Done():
			w.drainOnShutdown(st)
			return false
		case rec, ok := <-w.ch:
			if !ok {
				w.drainOnShutdown(st)
				return false
			}
			b, err := w.fmtr.Format(rec.Data)
			if err != nil {
				if w.lg != nil {
					w.lg.Error("format failure", wlog.KV("sink", w.name), wlog.KVErr(err))
				}
				continue
			}
			if err := w.writeOne(st, b); err != nil {
				w.logSendError(st, err, len(b))
				return true
			}
		}
	}
}

// writeOne applies probe gating, backoff, and a single bounded-retry
// write for one formatted record.
func (w *Writer) writeOne(st *connState, b []byte) error {
	w.maybeProbe(st)

	pct, have := w.fillPct(st)
	if have {
		emerg := EmergencyPctFor(int(st.avgWriteLen))
		if pct >= emerg {
			time.Sleep(EmergencySleep)
		} else if d := w.backoff.AutoSleep(pct); d > 0 {
			time.Sleep(d)
		}
	}

	if err := w.writeAllWithRetry(st.conn, b); err != nil {
		return err
	}

	st.sentCnt++
	st.bytesSinceProbe += len(b)
	if st.avgWriteLen == 0 {
		st.avgWriteLen = float64(len(b))
	} else {
		st.avgWriteLen = st.avgWriteLen*0.8 + float64(len(b))*0.2
	}
	return nil
}

// writeAllWithRetry issues one write, retrying with exponential backoff
// capped at 8ms on a transient deadline/WouldBlock-style error.
func (w *Writer) writeAllWithRetry(conn net.Conn, b []byte) error {
	backoff := time.Millisecond
	const maxBackoff = 8 * time.Millisecond
	for len(b) > 0 {
		n, err := conn.Write(b)
		b = b[n:]
		if err == nil {
			continue
		}
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		return err
	}
	return nil
}

// maybeProbe re-queries the kernel send queue length at most once per
// probe stride/gate, caching the result on st for fillPct to read
// between ticks without touching the kernel again.
func (w *Writer) maybeProbe(st *connState) {
	if !IsProbeTickDue(st.sentCnt) {
		return
	}
	gate := BackoffLargeProbeGate
	if st.avgWriteLen > 0 && int(st.avgWriteLen) <= BackoffSmallBypassBytes {
		gate = BackoffSmallProbeGate
	}
	if !st.lastProbeAt.IsZero() && time.Since(st.lastProbeAt) < gate {
		return
	}
	st.lastProbeAt = time.Now()
	st.bytesSinceProbe = 0
	n, ok := w.queryPendingBytes(st)
	st.cachedPending = n
	st.pendingKnown = ok
}

// fillPct returns the observed send-queue fill percentage, preferring
// the test overrides when present.
func (w *Writer) fillPct(st *connState) (int, bool) {
	pending, havePending := w.pendingBytes(st)
	sndbuf, haveSndbuf := w.sndbufCap(st)
	if !havePending || !haveSndbuf || sndbuf <= 0 {
		return 0, false
	}
	return pending * 100 / sndbuf, true
}

// pendingBytes returns the send-queue length observed at the most
// recent probe tick, never issuing a kernel call itself — maybeProbe
// is what refreshes st.cachedPending on the gated schedule.
func (w *Writer) pendingBytes(st *connState) (int, bool) {
	if w.pendingOverride != nil {
		return *w.pendingOverride, true
	}
	return st.cachedPending, st.pendingKnown
}

// queryPendingBytes issues the real TIOCOUTQ/SO_NWRITE kernel query (or
// returns the test override). Callers that need a throttled read should
// go through maybeProbe/pendingBytes instead; drainOnShutdown calls this
// directly since its own 10ms poll loop is already its rate limit.
func (w *Writer) queryPendingBytes(st *connState) (int, bool) {
	w.pendingQueries++
	if w.pendingOverride != nil {
		return *w.pendingOverride, true
	}
	sc, ok := st.conn.(syscall.Conn)
	if !ok {
		return 0, false
	}
	var n int
	var ok2 bool
	var ctlErr error
	raw, err := sc.SyscallConn()
	if err != nil {
		return 0, false
	}
	err = raw.Control(func(fd uintptr) {
		n, ok2, ctlErr = sendQueueLen(int(fd))
	})
	if err != nil || ctlErr != nil || !ok2 {
		return 0, false
	}
	return n, true
}

func (w *Writer) sndbufCap(st *connState) (int, bool) {
	if w.sndbufOverride != nil {
		return *w.sndbufOverride, true
	}
	if st.sndbufKnown {
		return st.cachedSndbuf, true
	}
	sc, ok := st.conn.(syscall.Conn)
	if !ok {
		return 0, false
	}
	var n int
	var ok2 bool
	var ctlErr error
	raw, err := sc.SyscallConn()
	if err != nil {
		return 0, false
	}
	err = raw.Control(func(fd uintptr) {
		n, ok2, ctlErr = sndbufSize(int(fd))
	})
	if err != nil || ctlErr != nil || !ok2 {
		return 0, false
	}
	st.cachedSndbuf = n
	st.sndbufKnown = true
	return n, true
}

// drainOnShutdown stops accepting new records (the caller already
// closed/ctx-canceled) and polls the kernel send queue every 10ms until
// empty or a 5s deadline.
func (w *Writer) drainOnShutdown(st *connState) {
	deadline := time.Now().Add(DrainDeadline)
	for time.Now().Before(deadline) {
		pending, ok := w.queryPendingBytes(st)
		if !ok || pending == 0 {
			return
		}
		time.Sleep(TCPDrainPoll)
	}
}

func (w *Writer) logSendError(st *connState, err error, payloadLen int) {
	if w.lg == nil {
		return
	}
	pct, have := w.fillPct(st)
	water := "-"
	if have {
		water = fmt.Sprintf("%d%%", pct)
	}
	w.lg.Error("tcp send error",
		wlog.KVErr(err),
		wlog.KV("sink", w.name),
		wlog.KV("payload_bytes", payloadLen),
		wlog.KV("water_pct", water),
		wlog.KV("avg_write_len", int(st.avgWriteLen)),
		wlog.KV("sent_cnt", st.sentCnt),
	)
}

// Close stops accepting new records and waits for Run to finish draining.
func (w *Writer) Close() error {
	close(w.ch)
	w.wg.Wait()
	return nil
}
