package callsite

import (
	"errors"
	"sync"
)

// ErrOutOfRange is returned by the derivation helpers when the
// requested positional index has no corresponding slot.
var ErrOutOfRange = errors.New("callsite: positional index out of range")

// ErrHasFlattening is returned by the derivation helpers when asked to
// derive from a callsite that flattens a trailing argument, since the
// resulting shape could not be described without also flattening.
var ErrHasFlattening = errors.New("callsite: cannot derive from a callsite with flattening")

// Store interns callsites, partitioned into buckets by flag count so
// that TryIntern only ever scans callsites of the same arity.
//
// A Store is safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	arityLimit int
	byArity    [][]*Callsite
}

// NewStore returns an empty Store using the package default ArityLimit.
// Most callers should immediately follow it with InitializeCommon.
func NewStore() *Store {
	return NewStoreTuned(ArityLimit)
}

// NewStoreTuned is NewStore with the arity cutoff taken from the
// caller (e.g. loaded from runtime.toml) instead of the package
// default. arityLimit <= 0 falls back to ArityLimit.
func NewStoreTuned(arityLimit int) *Store {
	if arityLimit <= 0 {
		arityLimit = ArityLimit
	}
	return &Store{arityLimit: arityLimit, byArity: make([][]*Callsite, arityLimit)}
}

// TryIntern returns the canonical callsite equal to cs: either cs
// itself, now marked interned and owned by s, or a previously-interned
// callsite structurally equal to it. Callers must always use the
// returned pointer in place of cs from then on.
//
// TryIntern leaves cs unowned and returns it unchanged when interning
// would not be worthwhile: cs has flattening, its arity is at or beyond
// ArityLimit, or it carries named arguments without names to compare
// them by.
func (s *Store) TryIntern(cs *Callsite) *Callsite {
	numFlags := len(cs.ArgFlags)
	numNameds := numFlags - cs.NumPos

	if cs.HasFlattening {
		return cs
	}
	if numFlags >= s.arityLimit {
		return cs
	}
	if numNameds > 0 && cs.ArgNames == nil {
		return cs
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bucket := s.byArity[numFlags]
	for _, existing := range bucket {
		if equal(existing, cs) {
			return existing
		}
	}

	cs.interned = true
	s.byArity[numFlags] = append(bucket, cs)
	return cs
}

// Len returns the total number of callsites currently interned in s,
// across every arity bucket.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, bucket := range s.byArity {
		n += len(bucket)
	}
	return n
}

// DropPositional returns the callsite obtained by removing the
// positional argument at idx from cs, interning the result.
func (s *Store) DropPositional(cs *Callsite, idx int) (*Callsite, error) {
	if idx < 0 || idx >= cs.NumPos {
		return nil, ErrOutOfRange
	}
	if cs.HasFlattening {
		return nil, ErrHasFlattening
	}

	newFlags := make([]ArgFlag, 0, len(cs.ArgFlags)-1)
	newFlags = append(newFlags, cs.ArgFlags[:idx]...)
	newFlags = append(newFlags, cs.ArgFlags[idx+1:]...)

	nc := &Callsite{
		ArgFlags: newFlags,
		ArgCount: cs.ArgCount - 1,
		NumPos:   cs.NumPos - 1,
		ArgNames: copyNames(cs.ArgNames),
	}
	return s.TryIntern(nc), nil
}

// InsertPositional returns the callsite obtained by inserting a new
// positional argument of the given flag at idx in cs, interning the
// result. idx may equal cs.NumPos to append at the end of the
// positional run.
func (s *Store) InsertPositional(cs *Callsite, idx int, flag ArgFlag) (*Callsite, error) {
	if idx < 0 || idx > cs.NumPos {
		return nil, ErrOutOfRange
	}
	if cs.HasFlattening {
		return nil, ErrHasFlattening
	}

	newFlags := make([]ArgFlag, 0, len(cs.ArgFlags)+1)
	newFlags = append(newFlags, cs.ArgFlags[:idx]...)
	newFlags = append(newFlags, flag)
	newFlags = append(newFlags, cs.ArgFlags[idx:]...)

	nc := &Callsite{
		ArgFlags: newFlags,
		ArgCount: cs.ArgCount + 1,
		NumPos:   cs.NumPos + 1,
		ArgNames: copyNames(cs.ArgNames),
	}
	return s.TryIntern(nc), nil
}
