package rtcore

import (
	"sync"

	"github.com/chazu/maggiecore/hashidx"
)

// StringInterner deduplicates strings to small integer indices using an
// index hash table, the way a host VM's symbol or selector table
// dedupes names — except here the table itself is the Robin-Hood
// index hash table rather than a plain Go map, so the hash table gets
// real production use beyond its own unit tests.
//
// A StringInterner is safe for concurrent use.
type StringInterner struct {
	mu    sync.RWMutex
	table *hashidx.Table
	keys  []string
}

// NewStringInterner returns an empty StringInterner sized for
// expectedEntries strings.
func NewStringInterner(expectedEntries uint32) *StringInterner {
	return &StringInterner{
		table: hashidx.Build(expectedEntries),
	}
}

// NewStringInternerTuned is NewStringInterner with the underlying
// table's load factor, probe-distance ceiling, and minimum size taken
// from the caller (e.g. loaded from runtime.toml) instead of hashidx's
// package defaults.
func NewStringInternerTuned(expectedEntries uint32, loadFactor float64, maxProbeDistance, minSizeLog2 int) *StringInterner {
	return &StringInterner{
		table: hashidx.BuildTuned(expectedEntries, loadFactor, maxProbeDistance, minSizeLog2),
	}
}

// Intern returns the canonical index for s, inserting it if this is
// the first time s has been seen.
func (si *StringInterner) Intern(s string) uint32 {
	si.mu.RLock()
	if idx, found := si.table.Lookup(si.keys, s); found {
		si.mu.RUnlock()
		return idx
	}
	si.mu.RUnlock()

	si.mu.Lock()
	defer si.mu.Unlock()

	if idx, found := si.table.Lookup(si.keys, s); found {
		return idx
	}

	idx := uint32(len(si.keys))
	si.keys = append(si.keys, s)
	si.table.InsertNocheck(si.keys, idx)
	return idx
}

// Lookup returns the index for s without interning it, and whether it
// was found.
func (si *StringInterner) Lookup(s string) (uint32, bool) {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return si.table.Lookup(si.keys, s)
}

// String returns the string interned at idx. It panics if idx is out
// of range, since callers should only ever hold indices this
// StringInterner handed out.
func (si *StringInterner) String(idx uint32) string {
	si.mu.RLock()
	defer si.mu.RUnlock()
	if int(idx) >= len(si.keys) {
		panic("rtcore: StringInterner.String index out of range")
	}
	return si.keys[idx]
}

// Len returns the number of distinct strings interned so far.
func (si *StringInterner) Len() int {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return len(si.keys)
}
