package record

import "sync"

// Name is a canonical, interned field name. Two Names built from the same
// text are always the identical *string handle, so pointer equality (==)
// is a valid identity check, backed by a read-fast/write-slow
// double-checked lock over the process-global intern table.
type Name struct {
	p *string
}

func (n Name) String() string {
	if n.p == nil {
		return ""
	}
	return *n.p
}

func (n Name) IsZero() bool { return n.p == nil }

// Equal is pointer identity when both Names came from Intern/MustIntern;
// falls back to string comparison for Names built by other means.
func (n Name) Equal(o Name) bool {
	if n.p == o.p {
		return true
	}
	return n.String() == o.String()
}

type internTable struct {
	mtx sync.RWMutex
	m   map[string]*string
}

var globalNames = &internTable{m: make(map[string]*string, 256)}

// Intern returns the canonical Name for s, allocating and caching the
// backing string on first use. Concurrent calls with the same s always
// observe the same *string.
func Intern(s string) Name {
	globalNames.mtx.RLock()
	if p, ok := globalNames.m[s]; ok {
		globalNames.mtx.RUnlock()
		return Name{p: p}
	}
	globalNames.mtx.RUnlock()

	globalNames.mtx.Lock()
	defer globalNames.mtx.Unlock()
	// double-check: another writer may have inserted while we waited for
	// the write lock.
	if p, ok := globalNames.m[s]; ok {
		return Name{p: p}
	}
	cp := s
	globalNames.m[s] = &cp
	return Name{p: &cp}
}

// MustIntern is Intern for use in package-level var initializers.
func MustIntern(s string) Name { return Intern(s) }

// internedCount reports how many distinct names are cached; used by tests
// to assert that repeated interning doesn't grow the table.
func internedCount() int {
	globalNames.mtx.RLock()
	defer globalNames.mtx.RUnlock()
	return len(globalNames.m)
}

// ClearInternTableForTest resets the global intern table. Test-only: the
// one piece of global mutable state in this package, reset between tests
// that care about table size.
func ClearInternTableForTest() {
	globalNames.mtx.Lock()
	defer globalNames.mtx.Unlock()
	globalNames.m = make(map[string]*string, 256)
}
