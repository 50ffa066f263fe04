package rtdiag

import (
	"testing"

	"github.com/chazu/maggiecore/callsite"
	"github.com/chazu/maggiecore/rtcore"
)

func TestSnapshotReflectsInstanceState(t *testing.T) {
	inst := rtcore.New(nil)
	inst.SpawnThread()
	inst.SpawnThread()
	rtcore.CallsiteFor(inst.Callsites, callsite.ArgObj, callsite.ArgInt, callsite.ArgInt)

	s := Snapshot(inst)

	if s.ThreadCount != 2 {
		t.Fatalf("ThreadCount = %d, want 2", s.ThreadCount)
	}
	if s.CorrelationID == "" {
		t.Fatal("CorrelationID must not be empty")
	}
	// Nine common callsites plus the one dynamically interned above.
	if s.CallsitesInterned != 10 {
		t.Fatalf("CallsitesInterned = %d, want 10", s.CallsitesInterned)
	}
}

func TestMarshalUnmarshalStatsRoundTrip(t *testing.T) {
	inst := rtcore.New(nil)
	inst.SpawnThread()
	s := Snapshot(inst)

	data, err := MarshalStats(s)
	if err != nil {
		t.Fatalf("MarshalStats: %v", err)
	}

	got, err := UnmarshalStats(data)
	if err != nil {
		t.Fatalf("UnmarshalStats: %v", err)
	}

	if got.CorrelationID != s.CorrelationID || got.ThreadCount != s.ThreadCount ||
		got.GCCycles != s.GCCycles || got.CallsitesInterned != s.CallsitesInterned {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, s)
	}
}

func TestTwoSnapshotsHaveDistinctCorrelationIDs(t *testing.T) {
	inst := rtcore.New(nil)

	a := Snapshot(inst)
	b := Snapshot(inst)

	if a.CorrelationID == b.CorrelationID {
		t.Fatal("two snapshots minted the same correlation ID")
	}
}
