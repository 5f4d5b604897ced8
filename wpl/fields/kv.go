package fields

import "strings"

// KVPair is one decoded key/value pair from a `kv` field.
type KVPair struct {
	Key, Value string
}

// ParseKV splits "key<sep>value" pairs. sep is the key/value separator
// (e.g. "="); itemSep separates successive pairs (default: run of
// whitespace when empty). Each value runs to the next item separator; no
// secondary end delimiter is applied.
func ParseKV(s, sep, itemSep string) []KVPair {
	var items []string
	if itemSep == "" {
		items = strings.Fields(s)
	} else {
		items = strings.Split(s, itemSep)
	}
	out := make([]KVPair, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		idx := strings.Index(it, sep)
		if idx < 0 {
			out = append(out, KVPair{Key: it})
			continue
		}
		out = append(out, KVPair{Key: it[:idx], Value: it[idx+len(sep):]})
	}
	return out
}
