package format

import (
	"strconv"
	"strings"

	"github.com/gravwell/wplrouter/record"
)

// KVFormatter renders a record as space-separated `name=value` pairs,
// quoting any value containing a space, tab, equals sign or double quote.
type KVFormatter struct{}

func (KVFormatter) Format(rec *record.DataRecord) ([]byte, error) {
	var b strings.Builder
	for i, f := range rec.Fields {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(f.Name.String())
		b.WriteByte('=')
		b.WriteString(kvQuote(f.Value.String()))
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func kvQuote(s string) string {
	if !strings.ContainsAny(s, " \t=\"") {
		return s
	}
	return strconv.Quote(s)
}
