package stats

import "testing"

func TestSliceRecordIncrAccumulatesTotalsAndItems(t *testing.T) {
	sr := NewSliceRecord("parse", 8)
	sr.Incr("host-a", "in")
	sr.Incr("host-a", "in")
	sr.Incr("host-a", "suc")
	sr.Incr("host-b", "end")

	if sr.Total != (Counters{In: 2, Suc: 1, End: 1}) {
		t.Fatalf("unexpected total: %+v", sr.Total)
	}
	items := sr.snapshotItems()
	if items["host-a"] != (Counters{In: 2, Suc: 1}) {
		t.Fatalf("unexpected host-a counters: %+v", items["host-a"])
	}
	if items["host-b"] != (Counters{End: 1}) {
		t.Fatalf("unexpected host-b counters: %+v", items["host-b"])
	}
}

func TestSliceRecordTopNEviction(t *testing.T) {
	sr := NewSliceRecord("parse", 2)
	sr.Incr("a", "in")
	sr.Incr("b", "in")
	sr.Incr("c", "in")
	items := sr.snapshotItems()
	if len(items) != 2 {
		t.Fatalf("expected 2 items retained under LRU cap, got %d: %+v", len(items), items)
	}
	// Total still reflects every Incr, capped items are a reporting
	// detail only.
	if sr.Total.In != 3 {
		t.Fatalf("expected total.In=3, got %d", sr.Total.In)
	}
}

func collectorOf(t *testing.T, pairs ...[3]string) *SliceRecord {
	t.Helper()
	sr := NewSliceRecord("sink", 8)
	for _, p := range pairs {
		sr.Incr(p[0], p[1])
	}
	return sr
}

func TestMergeIsCommutative(t *testing.T) {
	a := collectorOf(t, [3]string{"g1", "suc", ""}, [3]string{"g1", "suc", ""}, [3]string{"g2", "in", ""})
	b := collectorOf(t, [3]string{"g2", "suc", ""}, [3]string{"g3", "in", ""})

	ab := a.Merge(b)
	ba := b.Merge(a)

	if ab.Total != ba.Total {
		t.Fatalf("totals differ: %+v vs %+v", ab.Total, ba.Total)
	}
	if !sameSnapshot(ab.Snapshot(), ba.Snapshot()) {
		t.Fatalf("snapshots differ:\n%+v\n%+v", ab.Snapshot(), ba.Snapshot())
	}
}

func TestMergeIsAssociative(t *testing.T) {
	a := collectorOf(t, [3]string{"g1", "suc", ""})
	b := collectorOf(t, [3]string{"g2", "suc", ""})
	c := collectorOf(t, [3]string{"g3", "suc", ""}, [3]string{"g1", "in", ""})

	left := a.Merge(b).Merge(c)
	right := a.Merge(b.Merge(c))

	if left.Total != right.Total {
		t.Fatalf("totals differ: %+v vs %+v", left.Total, right.Total)
	}
	if !sameSnapshot(left.Snapshot(), right.Snapshot()) {
		t.Fatalf("snapshots differ:\n%+v\n%+v", left.Snapshot(), right.Snapshot())
	}
}

func TestMergeRecapsToTopNByFrequency(t *testing.T) {
	a := NewSliceRecord("sink", 1)
	a.Incr("low", "in")
	b := NewSliceRecord("sink", 1)
	b.Incr("high", "in")
	b.Incr("high", "in")
	b.Incr("high", "in")

	merged := a.Merge(b)
	snap := merged.Snapshot()
	if len(snap) != 1 || snap[0].Key != "high" {
		t.Fatalf("expected only 'high' to survive the recap, got %+v", snap)
	}
}

func sameSnapshot(a, b []ItemStat) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCollectorIncrCreatesStagesLazily(t *testing.T) {
	c := NewCollector(16)
	c.Incr("sink", "group-a", "suc")
	c.Incr("parse", "host-a", "in")

	snap := c.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(snap))
	}
	if snap["sink"].Total.Suc != 1 {
		t.Fatalf("expected sink.Total.Suc=1, got %+v", snap["sink"].Total)
	}
	if snap["parse"].Total.In != 1 {
		t.Fatalf("expected parse.Total.In=1, got %+v", snap["parse"].Total)
	}
}
