// Package wlog implements the engine's structured logger: multiple
// io.WriteCloser targets plus optional syslog Relays, each log line
// formatted as an RFC5424 message. A KVLogger can be handed to any
// pipeline stage (collector, worker, router, sink) as its local logger.
package wlog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/crewjam/rfc5424"
)

type Level int

const (
	OFF Level = iota
	DEBUG
	INFO
	WARN
	ERROR
	CRITICAL
	FATAL
)

func (l Level) priority() rfc5424.Priority {
	// facility local0 (16), severity per RFC5424 table 2.
	const facility = 16 << 3
	switch l {
	case DEBUG:
		return rfc5424.Priority(facility | 7)
	case INFO:
		return rfc5424.Priority(facility | 6)
	case WARN:
		return rfc5424.Priority(facility | 4)
	case ERROR:
		return rfc5424.Priority(facility | 3)
	case CRITICAL:
		return rfc5424.Priority(facility | 2)
	case FATAL:
		return rfc5424.Priority(facility | 0)
	default:
		return rfc5424.Priority(facility | 6)
	}
}

func LevelFromString(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OFF":
		return OFF, nil
	case "DEBUG":
		return DEBUG, nil
	case "INFO":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	case "CRITICAL":
		return CRITICAL, nil
	case "FATAL":
		return FATAL, nil
	}
	return OFF, errors.New("invalid log level " + s)
}

// Relay lets a logger forward already-formatted lines to another
// transport — typically the same net/syslog sink the pipeline writes
// records to, so operational logs and monitor-group records share one
// wire encoder.
type Relay interface {
	WriteLog(time.Time, []byte) error
}

const defaultID = `wplrouter@1`

type Logger struct {
	mtx      sync.Mutex
	wtrs     []io.WriteCloser
	rls      []Relay
	lvl      Level
	hostname string
	appname  string
}

func New(wtr io.WriteCloser) *Logger {
	l := &Logger{wtrs: []io.WriteCloser{wtr}, lvl: INFO}
	l.hostname, _ = os.Hostname()
	l.appname = "wplrouter"
	return l
}

func NewFile(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0660)
	if err != nil {
		return nil, err
	}
	return New(f), nil
}

type discardCloser struct{ io.Writer }

func (discardCloser) Close() error { return nil }

func NewDiscard() *Logger {
	return New(discardCloser{io.Discard})
}

func (l *Logger) SetLevel(lvl Level)        { l.mtx.Lock(); l.lvl = lvl; l.mtx.Unlock() }
func (l *Logger) SetLevelString(s string) error {
	lvl, err := LevelFromString(s)
	if err != nil {
		return err
	}
	l.SetLevel(lvl)
	return nil
}

func (l *Logger) AddWriter(w io.WriteCloser) {
	l.mtx.Lock()
	l.wtrs = append(l.wtrs, w)
	l.mtx.Unlock()
}

func (l *Logger) AddRelay(r Relay) {
	l.mtx.Lock()
	l.rls = append(l.rls, r)
	l.mtx.Unlock()
}

func (l *Logger) Close() error {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	var err error
	for _, w := range l.wtrs {
		if e := w.Close(); e != nil {
			err = e
		}
	}
	return err
}

// KV builds one RFC5424 structured-data parameter, mirroring log.KV.
func KV(name string, value interface{}) rfc5424.SDParam {
	if s, ok := value.(string); ok {
		return rfc5424.SDParam{Name: name, Value: s}
	}
	return rfc5424.SDParam{Name: name, Value: fmt.Sprintf("%v", value)}
}

func KVErr(err error) rfc5424.SDParam { return KV("error", err) }

func (l *Logger) Debug(msg string, sds ...rfc5424.SDParam)    { l.output(DEBUG, msg, sds...) }
func (l *Logger) Info(msg string, sds ...rfc5424.SDParam)     { l.output(INFO, msg, sds...) }
func (l *Logger) Warn(msg string, sds ...rfc5424.SDParam)     { l.output(WARN, msg, sds...) }
func (l *Logger) Error(msg string, sds ...rfc5424.SDParam)    { l.output(ERROR, msg, sds...) }
func (l *Logger) Critical(msg string, sds ...rfc5424.SDParam) { l.output(CRITICAL, msg, sds...) }

func (l *Logger) Fatal(msg string, sds ...rfc5424.SDParam) {
	l.output(FATAL, msg, sds...)
	os.Exit(-1)
}

func (l *Logger) output(lvl Level, msg string, sds ...rfc5424.SDParam) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if l.lvl == OFF || lvl < l.lvl {
		return
	}
	ts := time.Now()
	m := rfc5424.Message{
		Priority:  lvl.priority(),
		Timestamp: ts,
		Hostname:  trim(l.hostname, 255),
		AppName:   trim(l.appname, 48),
		Message:   []byte(msg),
	}
	if len(sds) > 0 {
		m.StructuredData = []rfc5424.StructuredData{{ID: defaultID, Parameters: sds}}
	}
	b, err := m.MarshalBinary()
	if err != nil {
		return
	}
	line := strings.TrimRight(string(b), "\n\r")
	for _, w := range l.wtrs {
		io.WriteString(w, line)
		io.WriteString(w, "\n")
	}
	for _, r := range l.rls {
		r.WriteLog(ts, []byte(line))
	}
}

func trim(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// KVLogger binds a fixed prefix of structured-data parameters (e.g. the
// owning pipeline stage's name) onto every call, attaching per-component
// context to the shared process logger.
type KVLogger struct {
	*Logger
	sds []rfc5424.SDParam
}

func NewKV(l *Logger, sds ...rfc5424.SDParam) *KVLogger {
	return &KVLogger{Logger: l, sds: sds}
}

func (k *KVLogger) Debug(msg string, sds ...rfc5424.SDParam) {
	k.Logger.Debug(msg, append(append([]rfc5424.SDParam{}, k.sds...), sds...)...)
}
func (k *KVLogger) Info(msg string, sds ...rfc5424.SDParam) {
	k.Logger.Info(msg, append(append([]rfc5424.SDParam{}, k.sds...), sds...)...)
}
func (k *KVLogger) Warn(msg string, sds ...rfc5424.SDParam) {
	k.Logger.Warn(msg, append(append([]rfc5424.SDParam{}, k.sds...), sds...)...)
}
func (k *KVLogger) Error(msg string, sds ...rfc5424.SDParam) {
	k.Logger.Error(msg, append(append([]rfc5424.SDParam{}, k.sds...), sds...)...)
}
