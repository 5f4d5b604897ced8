// Package format implements the pluggable per-record output formatters
// (`raw | json | kv | proto-text`) every sink writer renders a record
// through before handing bytes to its transport.
package format

import "github.com/gravwell/wplrouter/record"

// Formatter renders one record into the bytes a sink writer transmits.
// Implementations must not mutate rec or retain the returned slice past
// the next call — callers that need to hold onto it copy first.
type Formatter interface {
	Format(rec *record.DataRecord) ([]byte, error)
}

// Names, matching the config-file `format = "..."` values in
// `topology/sinks/**/*.toml`.
const (
	Raw       = "raw"
	JSON      = "json"
	KV        = "kv"
	ProtoText = "proto-text"
)

// ByName resolves a configured formatter name, defaulting to Raw for an
// unrecognized or empty value rather than failing sink construction.
func ByName(name string) Formatter {
	switch name {
	case JSON:
		return JSONFormatter{}
	case KV:
		return KVFormatter{}
	case ProtoText:
		return ProtoTextFormatter{}
	default:
		return RawFormatter{}
	}
}
