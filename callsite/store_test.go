package callsite

import (
	"sync"
	"testing"
)

func newTestStore() *Store {
	s := NewStore()
	InitializeCommon(s)
	return s
}

func TestTryInternIdentity(t *testing.T) {
	s := newTestStore()

	a := &Callsite{ArgFlags: []ArgFlag{ArgObj, ArgStr}, ArgCount: 2, NumPos: 2}
	b := &Callsite{ArgFlags: []ArgFlag{ArgObj, ArgStr}, ArgCount: 2, NumPos: 2}

	ia := s.TryIntern(a)
	ib := s.TryIntern(b)

	if ia != ib {
		t.Fatalf("two structurally equal callsites interned to different pointers: %p vs %p", ia, ib)
	}
	if !ia.IsInterned() {
		t.Fatal("interned callsite reports IsInterned() == false")
	}
}

func TestTryInternDistinguishesArity(t *testing.T) {
	s := newTestStore()

	one := s.TryIntern(&Callsite{ArgFlags: []ArgFlag{ArgObj}, ArgCount: 1, NumPos: 1})
	two := s.TryIntern(&Callsite{ArgFlags: []ArgFlag{ArgObj, ArgObj}, ArgCount: 2, NumPos: 2})

	if one == two {
		t.Fatal("callsites of different arity interned to the same pointer")
	}
}

func TestTryInternSkipsFlattening(t *testing.T) {
	s := newTestStore()

	cs := &Callsite{ArgFlags: []ArgFlag{ArgObj | FlagFlattening}, ArgCount: 1, NumPos: 1, HasFlattening: true}
	got := s.TryIntern(cs)

	if got != cs {
		t.Fatal("TryIntern should return a flattening callsite unchanged")
	}
	if got.IsInterned() {
		t.Fatal("a flattening callsite must never be marked interned")
	}
}

func TestTryInternSkipsAboveArityLimit(t *testing.T) {
	s := newTestStore()

	flags := make([]ArgFlag, ArityLimit)
	for i := range flags {
		flags[i] = ArgObj
	}
	cs := &Callsite{ArgFlags: flags, ArgCount: ArityLimit, NumPos: ArityLimit}

	got := s.TryIntern(cs)
	if got != cs || got.IsInterned() {
		t.Fatal("a callsite at or beyond ArityLimit must be returned unowned")
	}
}

func TestNewStoreTunedUsesGivenArityLimit(t *testing.T) {
	s := NewStoreTuned(3)

	cs := s.TryIntern(&Callsite{ArgFlags: []ArgFlag{ArgObj, ArgObj}, ArgCount: 2, NumPos: 2})
	if !cs.IsInterned() {
		t.Fatal("a callsite below a tuned arity limit of 3 must still intern")
	}

	above := &Callsite{ArgFlags: []ArgFlag{ArgObj, ArgObj, ArgObj}, ArgCount: 3, NumPos: 3}
	got := s.TryIntern(above)
	if got != above || got.IsInterned() {
		t.Fatal("a callsite at a tuned arity limit of 3 must be returned unowned")
	}
}

func TestNewStoreTunedFallsBackToDefaultOnNonPositive(t *testing.T) {
	s := NewStoreTuned(0)

	flags := make([]ArgFlag, ArityLimit-1)
	for i := range flags {
		flags[i] = ArgObj
	}
	cs := s.TryIntern(&Callsite{ArgFlags: flags, ArgCount: len(flags), NumPos: len(flags)})
	if !cs.IsInterned() {
		t.Fatal("NewStoreTuned(0) should fall back to the package ArityLimit")
	}
}

func TestTryInternNamedRequiresNames(t *testing.T) {
	s := newTestStore()

	cs := &Callsite{ArgFlags: []ArgFlag{ArgObj, ArgObj | FlagNamed}, ArgCount: 2, NumPos: 1}
	got := s.TryIntern(cs)

	if got != cs || got.IsInterned() {
		t.Fatal("a named callsite without ArgNames must be returned unowned")
	}
}

func TestCommonCallsitesAreInterned(t *testing.T) {
	_ = newTestStore()

	for id := IDZeroArity; id <= IDObjObjObj; id++ {
		cs, err := GetCommon(id)
		if err != nil {
			t.Fatalf("GetCommon(%d): %v", id, err)
		}
		if !cs.IsInterned() {
			t.Fatalf("common callsite %d is not interned in a freshly initialized store", id)
		}
		if !IsCommon(cs) {
			t.Fatalf("common callsite %d does not report IsCommon()", id)
		}
	}
}

func TestGetCommonUnknownID(t *testing.T) {
	if _, err := GetCommon(CommonID(999)); err != ErrUnknownCommon {
		t.Fatalf("GetCommon(999) error = %v, want ErrUnknownCommon", err)
	}
}

func TestDropThenInsertPositionalRoundTrips(t *testing.T) {
	s := newTestStore()

	original := s.TryIntern(&Callsite{ArgFlags: []ArgFlag{ArgObj, ArgInt, ArgStr}, ArgCount: 3, NumPos: 3})

	dropped, err := s.DropPositional(original, 1)
	if err != nil {
		t.Fatalf("DropPositional: %v", err)
	}
	if dropped.NumPos != 2 || dropped.ArgFlags[0] != ArgObj || dropped.ArgFlags[1] != ArgStr {
		t.Fatalf("DropPositional produced unexpected shape: %+v", dropped)
	}

	restored, err := s.InsertPositional(dropped, 1, ArgInt)
	if err != nil {
		t.Fatalf("InsertPositional: %v", err)
	}
	if restored != original {
		t.Fatalf("insert-after-drop did not re-intern to the original callsite: %p vs %p", restored, original)
	}
}

func TestDropPositionalOutOfRange(t *testing.T) {
	s := newTestStore()
	cs := s.TryIntern(&Callsite{ArgFlags: []ArgFlag{ArgObj}, ArgCount: 1, NumPos: 1})

	if _, err := s.DropPositional(cs, 5); err != ErrOutOfRange {
		t.Fatalf("DropPositional out of range error = %v, want ErrOutOfRange", err)
	}
	if _, err := s.DropPositional(cs, -1); err != ErrOutOfRange {
		t.Fatalf("DropPositional negative index error = %v, want ErrOutOfRange", err)
	}
}

func TestDerivationRejectsFlattening(t *testing.T) {
	s := newTestStore()
	cs := &Callsite{ArgFlags: []ArgFlag{ArgObj | FlagFlattening}, ArgCount: 1, NumPos: 1, HasFlattening: true}

	if _, err := s.DropPositional(cs, 0); err != ErrHasFlattening {
		t.Fatalf("DropPositional on flattening callsite error = %v, want ErrHasFlattening", err)
	}
	if _, err := s.InsertPositional(cs, 0, ArgObj); err != ErrHasFlattening {
		t.Fatalf("InsertPositional on flattening callsite error = %v, want ErrHasFlattening", err)
	}
}

func TestCopyIsNotInterned(t *testing.T) {
	s := newTestStore()
	cs := s.TryIntern(&Callsite{ArgFlags: []ArgFlag{ArgObj, ArgObj}, ArgCount: 2, NumPos: 2})

	cp := Copy(cs)
	if cp.IsInterned() {
		t.Fatal("Copy of an interned callsite must not itself be interned")
	}
	if cp == cs {
		t.Fatal("Copy must return a distinct pointer")
	}
	if !Equal(cp, cs) {
		t.Fatal("Copy must describe the same shape as its source")
	}
}

func TestCopyRecursesThroughWithInvocant(t *testing.T) {
	inner := &Callsite{ArgFlags: []ArgFlag{ArgObj}, ArgCount: 1, NumPos: 1}
	outer := &Callsite{ArgFlags: []ArgFlag{ArgObj, ArgObj}, ArgCount: 2, NumPos: 2, WithInvocant: inner}

	cp := Copy(outer)
	if cp.WithInvocant == inner {
		t.Fatal("Copy must deep-clone the WithInvocant chain, not alias it")
	}
	if !Equal(cp.WithInvocant, inner) {
		t.Fatal("copied WithInvocant must describe the same shape as the original")
	}
}

func TestDestroyPanicsOnInterned(t *testing.T) {
	s := newTestStore()
	cs := s.TryIntern(&Callsite{ArgFlags: []ArgFlag{ArgObj}, ArgCount: 1, NumPos: 1})

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic destroying an interned callsite")
		}
	}()
	Destroy(cs)
}

func TestDestroyPanicsOnCommon(t *testing.T) {
	cs, err := GetCommon(IDObj)
	if err != nil {
		t.Fatal(err)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic destroying a common callsite")
		}
	}()
	Destroy(cs)
}

func TestDestroyAllowsUninternedDerivedCopy(t *testing.T) {
	s := newTestStore()
	cs := s.TryIntern(&Callsite{ArgFlags: []ArgFlag{ArgObj}, ArgCount: 1, NumPos: 1})

	Destroy(Copy(cs)) // must not panic
}

func TestConcurrentTryInternConverges(t *testing.T) {
	s := newTestStore()

	const n = 64
	results := make([]*Callsite, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			cs := &Callsite{ArgFlags: []ArgFlag{ArgObj, ArgNum}, ArgCount: 2, NumPos: 2}
			results[i] = s.TryIntern(cs)
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatalf("concurrent TryIntern did not converge to one pointer: results[0]=%p results[%d]=%p", results[0], i, results[i])
		}
	}
}
