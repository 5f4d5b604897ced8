package net

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/gravwell/wplrouter/record"
	"github.com/gravwell/wplrouter/sink"
	"github.com/gravwell/wplrouter/sink/format"
)

func rec(s string) sink.Record {
	r := record.NewRecord(1)
	r.Add(record.Intern("msg"), record.Chars, record.NewChars(s))
	return sink.Record{Data: r}
}

func TestWriterSendsOverTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	lines := make(chan string, 4)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		sc := bufio.NewScanner(conn)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	w := New("net-test", ln.Addr().String(), format.RawFormatter{}, sink.Block, DefaultBackpressureCfg(), 4, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)

	w.Send(rec("hello"))

	select {
	case got := <-lines:
		if got != "hello" {
			t.Fatalf("unexpected line: %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for write")
	}

	cancel()
	w.Close()
}

func TestFillPctUsesOverrides(t *testing.T) {
	w := New("net-test", "unused:0", format.RawFormatter{}, sink.DropNewest, DefaultBackpressureCfg(), 1, nil)
	pending, sndbuf := 30, 100
	w.pendingOverride = &pending
	w.sndbufOverride = &sndbuf

	pct, ok := w.fillPct(&connState{})
	if !ok || pct != 30 {
		t.Fatalf("expected pct=30 ok=true, got pct=%d ok=%v", pct, ok)
	}
}

func TestMaybeProbeSkipsKernelQueryBetweenTicks(t *testing.T) {
	w := New("net-test", "unused:0", format.RawFormatter{}, sink.Block, DefaultBackpressureCfg(), 1, nil)
	pending, sndbuf := 10, 100
	w.pendingOverride = &pending
	w.sndbufOverride = &sndbuf

	st := &connState{}
	for i := 0; i < SendqProbeStride; i++ {
		w.maybeProbe(st)
		st.sentCnt++
	}
	if w.pendingQueries != 1 {
		t.Fatalf("expected exactly 1 kernel probe across one stride, got %d", w.pendingQueries)
	}
	if !st.pendingKnown || st.cachedPending != pending {
		t.Fatalf("expected cached pending=%d known=true, got pending=%d known=%v", pending, st.cachedPending, st.pendingKnown)
	}

	pct, ok := w.fillPct(st)
	if !ok || pct != 10 {
		t.Fatalf("expected fillPct to read the cached probe without re-querying, got pct=%d ok=%v (queries=%d)", pct, ok, w.pendingQueries)
	}
	if w.pendingQueries != 1 {
		t.Fatalf("fillPct triggered an extra kernel probe: got %d queries", w.pendingQueries)
	}
}

func TestSendDropNewestWhenChannelFull(t *testing.T) {
	w := New("net-test", "127.0.0.1:1", format.RawFormatter{}, sink.DropNewest, DefaultBackpressureCfg(), 1, nil)
	if !w.Send(rec("a")) {
		t.Fatal("expected first send to succeed")
	}
	if w.Send(rec("b")) {
		t.Fatal("expected second send to be dropped under DropNewest with a full channel")
	}
}

func TestRunReconnectsAfterConnectionLoss(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	// acceptOneLine accepts one connection, reads exactly one line, then
	// closes the connection from the server side to force the client's
	// next write to fail and trigger a reconnect.
	acceptOneLine := func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		sc := bufio.NewScanner(conn)
		sc.Scan()
	}

	first := make(chan struct{})
	go func() { acceptOneLine(); close(first) }()

	w := New("net-test", ln.Addr().String(), format.RawFormatter{}, sink.Block, DefaultBackpressureCfg(), 4, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	w.Send(rec("one"))
	<-first // server closed the first connection after reading one line

	second := make(chan struct{})
	go func() { acceptOneLine(); close(second) }()

	// Retry the second send until the writer notices the broken connection
	// and redials; ReconnectMin backoff means one send may land before the
	// reconnect completes.
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		w.Send(rec("two"))
		select {
		case <-second:
			return
		case <-time.After(50 * time.Millisecond):
		}
	}
	t.Fatal("timed out waiting for reconnect to be accepted")
}

func TestWriteAllWithRetryRetriesOnTimeout(t *testing.T) {
	w := New("net-test", "unused:0", format.RawFormatter{}, sink.Block, DefaultBackpressureCfg(), 1, nil)
	fc := &flakyConn{failTimes: 2}
	if err := w.writeAllWithRetry(fc, []byte("payload")); err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if string(fc.written) != "payload" {
		t.Fatalf("expected full payload written, got %q", fc.written)
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

type flakyConn struct {
	net.Conn
	failTimes int
	written   []byte
}

func (c *flakyConn) Write(b []byte) (int, error) {
	if c.failTimes > 0 {
		c.failTimes--
		return 0, timeoutErr{}
	}
	c.written = append(c.written, b...)
	return len(b), nil
}
