package callsite

// ArgFlag describes one argument slot in a callsite: what kind of value
// it carries, and (via the modifier bits) whether it is named and
// whether the tail of the argument list flattens into further args.
type ArgFlag uint8

const (
	ArgObj ArgFlag = 1 << iota
	ArgInt
	ArgNum
	ArgStr

	// FlagNamed marks a slot as a named argument rather than positional.
	// Named slots always trail positional ones, so the first NumPos
	// entries of ArgFlags never carry this bit.
	FlagNamed

	// FlagFlattening marks a slot whose value is a container that should
	// be flattened into the argument list at call time. A callsite that
	// carries this flag anywhere is never interned.
	FlagFlattening
)

// ArityLimit is the largest flag count the intern store will consider.
// Callsites at or beyond this arity are vanishingly rare in practice and
// not worth the bucket-scan cost, so TryIntern leaves them unowned.
const ArityLimit = 8

// Callsite is a call-shape descriptor: how many arguments, what kind
// each one is, which are named and what they're named, and whether the
// call flattens a trailing container.
//
// A Callsite obtained from Store.TryIntern, GetCommon, or one of the
// derivation helpers (DropPositional/InsertPositional) is canonical: two
// interned callsites describing the same shape are the same pointer.
type Callsite struct {
	ArgFlags []ArgFlag
	ArgCount int
	NumPos   int
	ArgNames []string

	HasFlattening bool
	WithInvocant  *Callsite

	interned bool
}

// IsInterned reports whether cs is a canonical, store-owned callsite.
// Interned callsites must never be mutated or passed to Destroy.
func (cs *Callsite) IsInterned() bool {
	return cs.interned
}

// FlagCount returns the total number of argument slots, positional and
// named combined.
func (cs *Callsite) FlagCount() int {
	return len(cs.ArgFlags)
}

// NumNameds returns the number of named argument slots.
func (cs *Callsite) NumNameds() int {
	return len(cs.ArgFlags) - cs.NumPos
}

// equal reports whether a and b describe the same call shape: identical
// arg_flags byte sequence and pairwise string-equal arg_names. It does
// not consider ArgCount, WithInvocant, or interned-ness; those are
// either derivable from ArgFlags or irrelevant to shape identity.
func equal(a, b *Callsite) bool {
	if len(a.ArgFlags) != len(b.ArgFlags) {
		return false
	}
	for i := range a.ArgFlags {
		if a.ArgFlags[i] != b.ArgFlags[i] {
			return false
		}
	}
	if len(a.ArgNames) != len(b.ArgNames) {
		return false
	}
	for i := range a.ArgNames {
		if a.ArgNames[i] != b.ArgNames[i] {
			return false
		}
	}
	return true
}

// Equal reports whether a and b describe the same call shape. Two
// interned callsites are Equal iff they are the same pointer; Equal is
// useful for comparing a not-yet-interned candidate against one that
// is.
func Equal(a, b *Callsite) bool {
	return equal(a, b)
}

func copyNames(names []string) []string {
	if names == nil {
		return nil
	}
	return append([]string(nil), names...)
}

// Copy deep-clones cs: its flags, names, and (recursively) its
// WithInvocant chain. The copy is never interned, regardless of
// whether cs is, since it is not present in any Store's buckets.
func Copy(cs *Callsite) *Callsite {
	nc := &Callsite{
		ArgCount:      cs.ArgCount,
		NumPos:        cs.NumPos,
		HasFlattening: cs.HasFlattening,
	}
	if len(cs.ArgFlags) > 0 {
		nc.ArgFlags = append([]ArgFlag(nil), cs.ArgFlags...)
	}
	nc.ArgNames = copyNames(cs.ArgNames)
	if cs.WithInvocant != nil {
		nc.WithInvocant = Copy(cs.WithInvocant)
	}
	return nc
}

// Destroy releases cs. It panics if cs is interned or is one of the
// common callsites, since both are process-owned and must outlive any
// single caller. Go's garbage collector reclaims the backing slices
// once Destroy returns and nothing else references cs; Destroy's job
// is purely to enforce the ownership invariant and to walk the
// WithInvocant chain the way a manual free would.
func Destroy(cs *Callsite) {
	if cs.interned {
		panic("callsite: Destroy called on an interned callsite")
	}
	if IsCommon(cs) {
		panic("callsite: Destroy called on a common callsite")
	}
	if cs.WithInvocant != nil {
		Destroy(cs.WithInvocant)
	}
}
