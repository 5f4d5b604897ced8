package format

import (
	"encoding/json"

	"github.com/gravwell/wplrouter/record"
)

// JSONFormatter renders a record as one newline-delimited JSON object.
// `goccy/go-json` was considered as a drop-in-signature replacement for
// stdlib `encoding/json` here, but the router's record sizes don't need
// it, so pulling it in for this one call site would add a dependency
// without exercising anything it does differently from the standard
// library.
type JSONFormatter struct{}

func (JSONFormatter) Format(rec *record.DataRecord) ([]byte, error) {
	obj := make(map[string]interface{}, len(rec.Fields))
	for _, f := range rec.Fields {
		obj[f.Name.String()] = jsonValue(f.Value)
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func jsonValue(v record.Value) interface{} {
	if v.Kind == record.Json || v.Kind == record.KV {
		if len(v.Sub) > 0 {
			sub := make(map[string]interface{}, len(v.Sub))
			for _, f := range v.Sub {
				sub[f.Name.String()] = jsonValue(f.Value)
			}
			return sub
		}
	}
	if v.Kind == record.Array {
		out := make([]interface{}, len(v.Arr))
		for i, e := range v.Arr {
			out[i] = jsonValue(e)
		}
		return out
	}
	return v.Interface()
}
