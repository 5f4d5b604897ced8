// Package oml defines the external object-mapping-language collaborator
// contract: a pluggable record transformer with a narrow interface. No
// OML language is implemented here; this package only describes the
// boundary parser workers call through after a successful WPL match.
package oml

import "github.com/gravwell/wplrouter/record"

// Transformer rewrites or enriches a parsed record. Implementations may
// consult a knowledge.Facade, but must not retain the record passed to
// Transform beyond the call.
type Transformer interface {
	// Transform returns a new record derived from in, or in unchanged if
	// this transformer declines to touch it (ok=false, err=nil).
	Transform(in *record.DataRecord) (out *record.DataRecord, ok bool, err error)

	// Name identifies the transformer for logging and stats attribution.
	Name() string
}

// Noop is the zero-configuration Transformer: it returns every record
// unchanged. worker.New substitutes it when given a nil Transformer.
type Noop struct{}

func (Noop) Transform(in *record.DataRecord) (*record.DataRecord, bool, error) {
	return in, false, nil
}

func (Noop) Name() string { return "noop" }
