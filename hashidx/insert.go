package hashidx

import "fmt"

// InsertNocheck unconditionally inserts idx, keyed by keys[idx]. The
// caller guarantees keys[idx] is not already present in the table;
// inserting the same idx twice is a programming error and panics,
// mirroring the original's fatal "insert duplicate" oops.
func (t *Table) InsertNocheck(keys []string, idx uint32) {
	if t.ctl.curItems >= t.ctl.maxItems {
		t.grow(keys)
	}
	t.insertInternal(keys, idx)
}

// insertInternal performs one Robin-Hood insertion, assuming the
// caller has already verified there is room (curItems < maxItems).
func (t *Table) insertInternal(keys []string, idx uint32) {
	if t.ctl.curItems >= t.ctl.maxItems {
		panic("hashidx: insertInternal called at capacity; caller must grow first")
	}

	pos := t.homeSlot(keys[idx])
	dist := uint8(1)

	for {
		if t.metadata[pos] < dist {
			// This is the candidate's rightful slot, occupied or not.
			if t.metadata[pos] != 0 {
				// Make room: shift every following occupied slot's
				// metadata and entry forward by one, stopping at the
				// first empty slot (the "gap").
				gap := pos
				old := t.metadata[gap]
				for old != 0 {
					newDist := old + 1
					if newDist == t.ctl.maxProbeDistance {
						// Force a resize before the *next* insert, so
						// this loop never has to deal with overflow
						// mid-walk.
						t.ctl.maxItems = 0
					}
					gap++
					old, t.metadata[gap] = t.metadata[gap], newDist
				}
				copy(t.entries[pos+1:gap+1], t.entries[pos:gap])
			}

			if dist == t.ctl.maxProbeDistance {
				t.ctl.maxItems = 0
			}

			t.ctl.curItems++
			t.metadata[pos] = dist
			t.entries[pos] = idx
			return
		}

		if t.metadata[pos] == dist && t.entries[pos] == idx {
			panic(fmt.Sprintf("hashidx: insert duplicate for index %d", idx))
		}

		pos++
		dist++
	}
}

// grow allocates a table twice the official size, re-inserts every
// occupied entry from the old table in slot order, and replaces t's
// backing storage with the new table's. The old slices become
// unreferenced and are left for the garbage collector.
func (t *Table) grow(keys []string) {
	oldEntries := t.entries
	oldMetadata := t.metadata

	grown := allocate(t.ctl.keyRightShift-1, t.ctl.officialSizeLog2+1, t.ctl.loadFactor, t.ctl.configuredMaxProbeDistance)

	for i := 0; i < len(oldMetadata)-1; i++ {
		if oldMetadata[i] != 0 {
			grown.insertInternal(keys, oldEntries[i])
		}
	}

	t.ctl = grown.ctl
	t.entries = grown.entries
	t.metadata = grown.metadata
}

// Lookup returns the index stored for key, and whether it was found.
// keys must be the same slice (or an equivalent one) passed to every
// InsertNocheck call that populated the table.
func (t *Table) Lookup(keys []string, key string) (uint32, bool) {
	if t.metadata == nil {
		return 0, false
	}

	pos := t.homeSlot(key)
	dist := uint8(1)

	for {
		m := t.metadata[pos]
		if m == 0 {
			return 0, false
		}
		if m == dist {
			idx := t.entries[pos]
			if keys[idx] == key {
				return idx, true
			}
		} else if m < dist {
			// Robin-Hood invariant: a resident with a shorter probe
			// distance than ours means our key would have displaced
			// it had it been present. It isn't here.
			return 0, false
		}
		pos++
		dist++
	}
}
