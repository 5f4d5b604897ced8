// Package stats implements per-stage counters aggregated into a
// SliceRecord keyed by item, a Top-N cap backed by an LRU, and
// commutative/associative Mergeable reports.
package stats

import (
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Counters is the `in`, `suc`, `end` triple tracked per item and per
// stage total.
type Counters struct {
	In, Suc, End int64
}

// Add accumulates other into the receiver.
func (c *Counters) Add(other Counters) {
	c.In += other.In
	c.Suc += other.Suc
	c.End += other.End
}

func (c Counters) Total() int64 { return c.In + c.Suc + c.End }

func (c *Counters) addField(field string, n int64) {
	switch field {
	case "in":
		c.In += n
	case "suc":
		c.Suc += n
	case "end":
		c.End += n
	}
}

// SliceRecord is one stage's (pick|parse|sink|gen) aggregate: a running
// total plus a Top-N capped per-item breakdown.
type SliceRecord struct {
	Stage string
	Total Counters

	topN  int
	mtx   sync.Mutex
	items *lru.Cache[string, *Counters]
}

// NewSliceRecord builds an empty SliceRecord capped at topN distinct
// items, LRU-evicted as new keys arrive past capacity.
func NewSliceRecord(stage string, topN int) *SliceRecord {
	if topN < 1 {
		topN = 1
	}
	c, _ := lru.New[string, *Counters](topN)
	return &SliceRecord{Stage: stage, topN: topN, items: c}
}

// Incr increments one item's named field and the stage total.
func (s *SliceRecord) Incr(key, field string) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.Total.addField(field, 1)
	c, ok := s.items.Get(key)
	if !ok {
		c = &Counters{}
		s.items.Add(key, c)
	}
	c.addField(field, 1)
}

func (s *SliceRecord) snapshotItems() map[string]Counters {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	out := make(map[string]Counters, s.items.Len())
	for _, k := range s.items.Keys() {
		if v, ok := s.items.Peek(k); ok {
			out[k] = *v
		}
	}
	return out
}

// Merge returns a new SliceRecord combining s and other: totals sum, and
// the item set is the union re-capped to Top-N by combined frequency
// (descending total, lexical tie-break). This frequency-based recap —
// rather than LRU recency — is what makes Merge commutative and
// associative regardless of call order.
func (s *SliceRecord) Merge(other *SliceRecord) *SliceRecord {
	merged := NewSliceRecord(s.Stage, s.topN)
	merged.Total = s.Total
	merged.Total.Add(other.Total)

	union := s.snapshotItems()
	for k, v := range other.snapshotItems() {
		c := union[k]
		c.Add(v)
		union[k] = c
	}

	keys := make([]string, 0, len(union))
	for k := range union {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ti, tj := union[keys[i]].Total(), union[keys[j]].Total()
		if ti != tj {
			return ti > tj
		}
		return keys[i] < keys[j]
	})
	if len(keys) > merged.topN {
		keys = keys[:merged.topN]
	}
	for _, k := range keys {
		c := union[k]
		merged.items.Add(k, &c)
	}
	return merged
}

// Snapshot returns the Top-N items as a stable-ordered slice (highest
// total first), for rendering into a monitor record or a report.
func (s *SliceRecord) Snapshot() []ItemStat {
	items := s.snapshotItems()
	out := make([]ItemStat, 0, len(items))
	for k, v := range items {
		out = append(out, ItemStat{Key: k, Counters: v})
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].Counters.Total(), out[j].Counters.Total()
		if ti != tj {
			return ti > tj
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// ItemStat is one Top-N entry.
type ItemStat struct {
	Key      string
	Counters Counters
}

// Collector owns one SliceRecord per stage, created lazily on first use.
type Collector struct {
	topN   int
	mtx    sync.Mutex
	stages map[string]*SliceRecord
}

func NewCollector(topN int) *Collector {
	return &Collector{topN: topN, stages: make(map[string]*SliceRecord)}
}

// Incr increments (stage, key, field), creating the stage's SliceRecord
// on first use.
func (c *Collector) Incr(stage, key, field string) {
	c.mtx.Lock()
	sr, ok := c.stages[stage]
	if !ok {
		sr = NewSliceRecord(stage, c.topN)
		c.stages[stage] = sr
	}
	c.mtx.Unlock()
	sr.Incr(key, field)
}

// Snapshot returns a new map holding every stage's SliceRecord. The map
// is a copy; the SliceRecords in it are the live ones, not copies.
func (c *Collector) Snapshot() map[string]*SliceRecord {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	out := make(map[string]*SliceRecord, len(c.stages))
	for k, v := range c.stages {
		out[k] = v
	}
	return out
}
