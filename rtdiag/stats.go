package rtdiag

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/chazu/maggiecore/rtcore"
)

// Stats is a point-in-time diagnostic snapshot of a runtime instance.
type Stats struct {
	// CorrelationID identifies this snapshot for later cross-referencing
	// in logs or a distributed trace; a fresh one is minted each time
	// Snapshot is called.
	CorrelationID string `cbor:"correlation_id"`

	ThreadCount       int    `cbor:"thread_count"`
	GCCycles          uint64 `cbor:"gc_cycles"`
	LastGCCycleID     string `cbor:"last_gc_cycle_id"`
	CallsitesInterned int    `cbor:"callsites_interned"`
	ArgNamesInterned  int    `cbor:"arg_names_interned"`
}

// Snapshot captures the current diagnostic state of inst.
func Snapshot(inst *rtcore.Instance) *Stats {
	return &Stats{
		CorrelationID:     uuid.New().String(),
		ThreadCount:       inst.ThreadCount(),
		GCCycles:          inst.GC.GCSeqNumber(),
		LastGCCycleID:     inst.GC.LastCycleID(),
		CallsitesInterned: inst.Callsites.Len(),
		ArgNamesInterned:  inst.ArgNames.Len(),
	}
}

// String renders a human-readable one-line summary, suitable for a log
// line emitted on a diagnostic tick.
func (s *Stats) String() string {
	return fmt.Sprintf(
		"snapshot %s: %s threads, %s GC cycles (last %s), %s callsites and %s arg names interned",
		s.CorrelationID,
		humanize.Comma(int64(s.ThreadCount)),
		humanize.Comma(int64(s.GCCycles)),
		s.LastGCCycleID,
		humanize.Comma(int64(s.CallsitesInterned)),
		humanize.Comma(int64(s.ArgNamesInterned)),
	)
}
