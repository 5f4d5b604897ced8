// Package pipes implements the WPL pipe registry: stateless, pure text
// transforms applied before/after a field or group, plus the
// process-global plugin-pipe registry rules look builtin and
// user-registered pipes up in by name.
package pipes

import (
	"strings"
	"sync"

	"github.com/gravwell/wplrouter/internal/wlog"
	"github.com/gravwell/wplrouter/wpl/fields"
)

// Transform is a stateless, pure pipe function. It must not retain any
// reference to the cursor/input it was given beyond the call.
type Transform func(in string, args []string) (string, error)

// registry maps an uppercased pipe name to its builder. Registration is
// meant to happen only during process startup; lookups after that are
// read-mostly.
var (
	mtx      sync.RWMutex
	registry = map[string]Transform{}
	warned   = map[string]bool{}
	logger   *wlog.Logger
)

func init() {
	Register("DECODE/BASE64", decodeBase64)
	Register("ENCODE/BASE64", encodeBase64)
	Register("DECODE/HEX", decodeHex)
	Register("ENCODE/HEX", encodeHex)
	Register("UNQUOTE/UNESCAPE", unquoteUnescape)
}

// SetLogger wires the one-shot miss-warning sink; if unset, misses are
// silently no-op'd.
func SetLogger(l *wlog.Logger) {
	mtx.Lock()
	logger = l
	mtx.Unlock()
}

// Register adds a named pipe builder. Intended to be called only while
// the process is starting up, before any rule begins executing.
func Register(name string, fn Transform) {
	mtx.Lock()
	defer mtx.Unlock()
	registry[strings.ToUpper(name)] = fn
}

// ClearForTest resets the registry to just the builtins, for test
// isolation between tests that register their own pipes.
func ClearForTest() {
	mtx.Lock()
	registry = map[string]Transform{}
	warned = map[string]bool{}
	mtx.Unlock()
	Register("DECODE/BASE64", decodeBase64)
	Register("ENCODE/BASE64", encodeBase64)
	Register("DECODE/HEX", decodeHex)
	Register("ENCODE/HEX", encodeHex)
	Register("UNQUOTE/UNESCAPE", unquoteUnescape)
}

// Lookup resolves a pipe by name. A miss returns a no-op stub and logs a
// one-time warning rather than failing the rule that referenced it.
func Lookup(name string) Transform {
	key := strings.ToUpper(name)
	mtx.RLock()
	fn, ok := registry[key]
	lg := logger
	mtx.RUnlock()
	if ok {
		return fn
	}
	mtx.Lock()
	if !warned[key] {
		warned[key] = true
		if lg != nil {
			lg.Warn("unknown pipe, using no-op stub", wlog.KV("pipe", name))
		}
	}
	mtx.Unlock()
	return noop
}

func noop(in string, _ []string) (string, error) { return in, nil }

func decodeBase64(in string, _ []string) (string, error) {
	b, err := fields.DecodeBase64(in)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func encodeBase64(in string, _ []string) (string, error) {
	return fields.EncodeBase64([]byte(in)), nil
}

func decodeHex(in string, _ []string) (string, error) {
	b, err := fields.DecodeHex(in)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func encodeHex(in string, _ []string) (string, error) {
	return fields.EncodeHex([]byte(in)), nil
}

func unquoteUnescape(in string, _ []string) (string, error) {
	s := strings.TrimSpace(in)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case 't':
				b.WriteByte('\t')
				i++
				continue
			case '"':
				b.WriteByte('"')
				i++
				continue
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String(), nil
}
