package hashidx

import (
	"fmt"
	"math/bits"

	"github.com/zeebo/xxh3"
)

// Tuning constants an embedder may adjust by constructing a Table with
// BuildTuned instead of Build.
const (
	// MinSizeLog2 is the smallest official table size, log2.
	MinSizeLog2 = 3

	// LoadFactor is the target fill ratio of the official (non-overflow)
	// region before a resize is forced.
	LoadFactor = 0.75

	// MaxProbeDistance forces a resize before a probe sequence could run
	// past it, so the insert loop never has to handle overflow mid-walk.
	MaxProbeDistance = 255
)

// control mirrors the fixed-size header that sits between the entries
// and metadata regions in the original single-allocation layout. Here
// it is simply the bookkeeping for the two slices Table owns.
type control struct {
	officialSizeLog2      uint8
	keyRightShift         uint8
	maxProbeDistance      uint8
	maxProbeDistanceLimit uint8
	maxItems              uint32
	curItems              uint32

	// loadFactor and configuredMaxProbeDistance are the tuning values
	// this table was built with (BuildTuned, or the package defaults
	// via Build). grow carries them forward so a resized table keeps
	// the tuning it was given rather than reverting to the defaults.
	loadFactor                 float64
	configuredMaxProbeDistance uint8
}

// Table is an open-addressed Robin-Hood hash table mapping string keys
// (held in a caller-owned slice) to integer indices into that slice.
//
// Table owns exactly two slices: entries and metadata. Keeping them as
// separate, bounds-checked slices rather than one raw buffer with
// pointer arithmetic (as the original C layout does, with entries
// growing downward from a control header and metadata growing upward)
// preserves the same ownership and aliasing discipline while staying
// memory-safe; see DESIGN.md.
type Table struct {
	ctl      control
	entries  []uint32
	metadata []uint8
}

// Build allocates a table sized for expectedEntries items at the
// configured LoadFactor. expectedEntries may be 0, in which case the
// table starts at MinSizeLog2.
func Build(expectedEntries uint32) *Table {
	return BuildTuned(expectedEntries, LoadFactor, MaxProbeDistance, MinSizeLog2)
}

// BuildTuned is Build with the load factor, probe-distance ceiling, and
// minimum table size taken from the caller instead of the package
// defaults, so an embedder's runtime.toml can actually drive table
// sizing rather than just describe it.
func BuildTuned(expectedEntries uint32, loadFactor float64, maxProbeDistance, minSizeLog2 int) *Table {
	minLog2 := uint8(minSizeLog2)

	var sizeLog2 uint8
	if expectedEntries == 0 {
		sizeLog2 = minLog2
	} else {
		minNeeded := uint32(float64(expectedEntries) / loadFactor)
		if minNeeded < expectedEntries {
			minNeeded = expectedEntries
		}
		sizeLog2 = ceilLog2(minNeeded)
		if sizeLog2 < minLog2 {
			sizeLog2 = minLog2
		}
	}
	return allocate(64-sizeLog2, sizeLog2, loadFactor, uint8(maxProbeDistance))
}

// ceilLog2 returns the smallest n such that 1<<n >= v, for v >= 1.
func ceilLog2(v uint32) uint8 {
	if v <= 1 {
		return 0
	}
	return uint8(bits.Len32(v - 1))
}

func allocate(keyRightShift, officialSizeLog2 uint8, loadFactor float64, configuredMaxProbeDistance uint8) *Table {
	officialSize := uint32(1) << officialSizeLog2
	maxItems := uint32(float64(officialSize) * loadFactor)
	if maxItems == 0 {
		maxItems = 1
	}

	// probe distance 1 means "correct bucket"; a probe distance of
	// configuredMaxProbeDistance-1 is the furthest overflow slot we
	// allow before forcing a resize ahead of time.
	var maxProbeDistanceLimit uint8
	if uint32(configuredMaxProbeDistance)-1 < maxItems-1 {
		maxProbeDistanceLimit = configuredMaxProbeDistance - 1
	} else {
		maxProbeDistanceLimit = uint8(maxItems - 1)
	}

	allocatedItems := officialSize + uint32(maxProbeDistanceLimit)

	t := &Table{
		ctl: control{
			officialSizeLog2:           officialSizeLog2,
			keyRightShift:              keyRightShift,
			maxProbeDistance:           maxProbeDistanceLimit,
			maxProbeDistanceLimit:      maxProbeDistanceLimit,
			maxItems:                   maxItems,
			loadFactor:                 loadFactor,
			configuredMaxProbeDistance: configuredMaxProbeDistance,
		},
		entries:  make([]uint32, allocatedItems),
		metadata: make([]uint8, allocatedItems+1),
	}
	// Sentinel: marks an occupied slot at its ideal position, one past
	// the last real slot, so a probe walk always finds a metadata byte
	// it can compare against without running off the end.
	t.metadata[allocatedItems] = 1
	return t
}

// Demolish drops the table's backing storage. After Demolish the table
// must not be used again. This is the idiomatic-Go stand-in for the
// single MVM_free of the original layout: Go's GC reclaims the slices
// once nothing references them, so Demolish's job is just to make that
// true immediately and to guard against reuse.
func (t *Table) Demolish() {
	t.entries = nil
	t.metadata = nil
}

// OfficialSize returns 1<<officialSizeLog2, the non-overflow region size.
func (t *Table) OfficialSize() uint32 {
	return uint32(1) << t.ctl.officialSizeLog2
}

// CurItems returns the number of items currently stored.
func (t *Table) CurItems() uint32 {
	return t.ctl.curItems
}

// MaxItems returns the current insert threshold before a resize.
func (t *Table) MaxItems() uint32 {
	return t.ctl.maxItems
}

// MaxProbeDistanceInUse returns the probe-distance ceiling of the
// current allocation. It is fixed when the table is allocated; an
// insertion that places or shifts an entry to this distance forces a
// resize before the next insert.
func (t *Table) MaxProbeDistanceInUse() uint8 {
	return t.ctl.maxProbeDistance
}

func hashKey(key string) uint64 {
	return xxh3.HashString(key)
}

func (t *Table) homeSlot(key string) uint32 {
	return uint32(hashKey(key) >> t.ctl.keyRightShift)
}

// checkInvariant walks the occupied run and panics if the Robin-Hood
// weak-ordering invariant (probe distances never decrease except across
// an empty slot) is violated. It exists for tests, not production use.
func (t *Table) checkInvariant() error {
	var prev uint8
	for i, m := range t.metadata[:len(t.metadata)-1] {
		if m == 0 {
			prev = 0
			continue
		}
		if prev != 0 && m < prev {
			return fmt.Errorf("hashidx: Robin-Hood invariant violated at slot %d: distance %d follows %d", i, m, prev)
		}
		prev = m
	}
	return nil
}
