package format

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gravwell/wplrouter/record"
)

// rfc3164Facility/Severity pick local0.info, matching internal/wlog's own
// default priority for records that don't carry an explicit severity.
const (
	rfc3164Facility = 16
	rfc3164Severity = 6
)

// RFC3164Formatter wraps another Formatter's output as the MSG part of an
// RFC3164 syslog line: `<PRI>Mmm dd HH:MM:SS host app: message\n`. It is
// the one format a syslog connector applies on top of whatever body
// format (raw/json/kv) the sink is configured with.
type RFC3164Formatter struct {
	Inner    Formatter
	AppName  string
	hostname string
}

// NewRFC3164 builds a formatter wrapping inner's output, captioned with
// appName. The local hostname is resolved once at construction, matching
// internal/wlog.Logger's own one-shot os.Hostname() call.
func NewRFC3164(inner Formatter, appName string) RFC3164Formatter {
	host, _ := os.Hostname()
	if inner == nil {
		inner = RawFormatter{}
	}
	return RFC3164Formatter{Inner: inner, AppName: appName, hostname: host}
}

func (f RFC3164Formatter) Format(rec *record.DataRecord) ([]byte, error) {
	body, err := f.Inner.Format(rec)
	if err != nil {
		return nil, err
	}
	msg := strings.TrimRight(string(body), "\n")
	pri := rfc3164Facility*8 + rfc3164Severity
	ts := time.Now().Format("Jan _2 15:04:05")
	line := fmt.Sprintf("<%d>%s %s %s: %s\n", pri, ts, f.hostname, f.AppName, msg)
	return []byte(line), nil
}
