package rtcore

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/chazu/maggiecore/callsite"
	"github.com/chazu/maggiecore/gcorch"
	"github.com/chazu/maggiecore/rtconfig"
)

// Instance is a runtime core: a shared callsite intern store, a named-
// argument string interner, and a GC orchestration registry, plus the
// bookkeeping needed to mint and retire threads of execution against
// all three.
type Instance struct {
	Callsites *callsite.Store
	ArgNames  *StringInterner
	GC        *gcorch.Registry

	mu           sync.Mutex
	threads      map[int]*gcorch.ThreadContext
	nextThreadID atomic.Int32
}

// New returns a fully bootstrapped Instance using package-default
// tuning throughout. collector may be nil for an instance that only
// needs to exercise the orchestration protocol without actually
// tracing a nursery (as in tests).
func New(collector gcorch.Collector) *Instance {
	return NewTuned(collector, nil)
}

// NewTuned is New with the callsite store's arity limit and the
// argument-name interner's hash table built from tuning instead of
// package defaults, so a loaded runtime.toml actually drives the
// instance it configures rather than being reduced to a printout. A
// nil tuning is equivalent to calling New.
func NewTuned(collector gcorch.Collector, tuning *rtconfig.Tuning) *Instance {
	if tuning == nil {
		tuning = rtconfig.Defaults()
	}

	inst := &Instance{
		Callsites: callsite.NewStoreTuned(tuning.Callsite.ArityLimit),
		ArgNames: NewStringInternerTuned(0,
			tuning.HashIdx.LoadFactor, tuning.HashIdx.MaxProbeDistance, tuning.HashIdx.MinSizeLog2),
		GC:      gcorch.NewRegistry(collector),
		threads: make(map[int]*gcorch.ThreadContext),
	}
	inst.GC.SetLogging(tuning.GC.LogEnabled)
	callsite.InitializeCommon(inst.Callsites)
	return inst
}

// NamedCallsiteFor interns a callsite whose trailing args carry names,
// deduplicating the name strings themselves through inst.ArgNames
// before building the callsite. Named args are ordered by name so that
// two calls with the same name set intern to the same callsite
// regardless of the order the caller's map happened to iterate in.
func (inst *Instance) NamedCallsiteFor(positional []callsite.ArgFlag, named map[string]callsite.ArgFlag) *callsite.Callsite {
	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}
	sort.Strings(names)

	flags := append([]callsite.ArgFlag(nil), positional...)
	for _, name := range names {
		flags = append(flags, named[name]|callsite.FlagNamed)
		inst.ArgNames.Intern(name)
	}

	cs := &callsite.Callsite{
		ArgFlags: flags,
		ArgCount: len(flags),
		NumPos:   len(positional),
		ArgNames: names,
	}
	return inst.Callsites.TryIntern(cs)
}

// SpawnThread mints a new GC-tracked thread context, registers it with
// the Instance's orchestration registry, and returns it. The caller is
// responsible for calling RetireThread once the thread exits.
func (inst *Instance) SpawnThread() *gcorch.ThreadContext {
	id := int(inst.nextThreadID.Add(1))
	tc := gcorch.NewThreadContext(id)

	inst.GC.Register(tc)

	inst.mu.Lock()
	inst.threads[id] = tc
	inst.mu.Unlock()

	return tc
}

// RetireThread unregisters tc from GC orchestration. tc must be in
// StatusNone and must not re-enter the allocator or interrupt paths
// afterward.
func (inst *Instance) RetireThread(tc *gcorch.ThreadContext) {
	inst.GC.Unregister(tc)

	inst.mu.Lock()
	delete(inst.threads, tc.ID)
	inst.mu.Unlock()
}

// ThreadCount returns the number of currently registered threads.
func (inst *Instance) ThreadCount() int {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return len(inst.threads)
}

// CallsiteFor interns a callsite built from the given positional
// argument flags, returning the canonical pointer. It is a convenience
// wrapper for the common "all positional, no names, no flattening"
// shape that dominates real call sites.
func CallsiteFor(s *callsite.Store, flags ...callsite.ArgFlag) *callsite.Callsite {
	cs := &callsite.Callsite{
		ArgFlags: append([]callsite.ArgFlag(nil), flags...),
		ArgCount: len(flags),
		NumPos:   len(flags),
	}
	return s.TryIntern(cs)
}

// String renders a brief summary of the instance's bootstrap state,
// useful in logs emitted at startup.
func (inst *Instance) String() string {
	return fmt.Sprintf("rtcore.Instance{threads=%d, gcCycles=%d}", inst.ThreadCount(), inst.GC.GCSeqNumber())
}
