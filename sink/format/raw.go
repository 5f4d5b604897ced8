package format

import (
	"strings"

	"github.com/gravwell/wplrouter/record"
)

// RawFormatter renders a record as its fields' string values joined by a
// single space, terminated by a newline — the "no framing, no schema"
// baseline format every other formatter is compared against.
type RawFormatter struct{}

func (RawFormatter) Format(rec *record.DataRecord) ([]byte, error) {
	var b strings.Builder
	for i, f := range rec.Fields {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(f.Value.String())
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}
