package format

import (
	"strings"

	"github.com/gravwell/wplrouter/record"
)

// ProtoTextFormatter renders a record in a protobuf-text-format style:
// one `name: "value"` line per field, record terminated by a blank line.
type ProtoTextFormatter struct{}

func (ProtoTextFormatter) Format(rec *record.DataRecord) ([]byte, error) {
	var b strings.Builder
	for _, f := range rec.Fields {
		b.WriteString(f.Name.String())
		b.WriteString(": \"")
		b.WriteString(strings.ReplaceAll(f.Value.String(), `"`, `\"`))
		b.WriteString("\"\n")
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}
