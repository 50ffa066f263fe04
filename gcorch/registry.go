package gcorch

import (
	"log"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Registry tracks the set of threads that must agree before a
// collection proceeds, and runs the election/signal/rendezvous
// protocol that gets them there.
//
// A Registry is safe for concurrent use by every thread it tracks.
type Registry struct {
	collector Collector

	// startingMu stands in for the original's thread-starting mutex: it
	// is held across electing a coordinator and signalling every other
	// thread, so that the set of registered threads (and therefore the
	// expected headcount) can't shift mid-election.
	startingMu sync.Mutex
	threads    []*ThreadContext

	gcSeqNumber       atomic.Uint64
	startingGC        atomic.Uint32
	expectedGCThreads atomic.Uint32

	logEnabled  atomic.Bool
	lastCycleID atomic.Value // string
}

// NewRegistry returns a Registry that delegates actual nursery
// collection to c. c may be nil, in which case a collection cycle
// still runs the full election and rendezvous protocol but performs no
// tracing work — useful for testing the orchestration in isolation.
func NewRegistry(c Collector) *Registry {
	return &Registry{collector: c}
}

// Register enlists tc as a thread the Registry must account for in
// every future collection. It must be called before tc ever calls
// EnterFromAllocator, EnterFromInterrupt, or MarkThreadBlocked.
func (r *Registry) Register(tc *ThreadContext) {
	r.startingMu.Lock()
	defer r.startingMu.Unlock()
	r.threads = append(r.threads, tc)
}

// Unregister removes tc from the Registry. It must only be called with
// tc in StatusNone and no collection in progress.
func (r *Registry) Unregister(tc *ThreadContext) {
	r.startingMu.Lock()
	defer r.startingMu.Unlock()
	for i, t := range r.threads {
		if t == tc {
			r.threads = append(r.threads[:i], r.threads[i+1:]...)
			return
		}
	}
}

// GCSeqNumber returns the number of collection cycles run so far.
func (r *Registry) GCSeqNumber() uint64 {
	return r.gcSeqNumber.Load()
}

// SetLogging enables or disables log.Printf output for cycle
// start/end. It is off by default.
func (r *Registry) SetLogging(enabled bool) {
	r.logEnabled.Store(enabled)
}

// LastCycleID returns the correlation id of the most recently started
// collection cycle, or "" if none has run yet.
func (r *Registry) LastCycleID() string {
	v := r.lastCycleID.Load()
	if v == nil {
		return ""
	}
	return v.(string)
}

func (r *Registry) signalOneThread(target *ThreadContext) {
	for {
		if target.status.CompareAndSwap(uint32(StatusNone), uint32(StatusInterrupt)) {
			return
		}
		if target.status.CompareAndSwap(uint32(StatusUnable), uint32(StatusStolen)) {
			r.startingGC.Add(1)
			return
		}
	}
}

func (r *Registry) signalAllBut(self *ThreadContext) {
	for _, t := range r.threads {
		if t != self {
			r.signalOneThread(t)
		}
	}
}

// releaseStolenThreads returns every thread this cycle stole from a
// blocking native call back to StatusUnable, the status it would have
// been left in had the coordinator never intervened. It must run after
// a cycle completes and before any stolen thread's eventual
// MarkThreadUnblocked call, since that call only knows how to leave
// StatusUnable.
func (r *Registry) releaseStolenThreads() {
	for _, t := range r.threads {
		t.status.CompareAndSwap(uint32(StatusStolen), uint32(StatusUnable))
	}
}

func (r *Registry) waitForAllThreads() {
	for r.startingGC.Load() != r.expectedGCThreads.Load() {
		runtime.Gosched()
	}
}

func (r *Registry) runGC(tc *ThreadContext) {
	if r.collector != nil {
		r.collector.CollectNursery(tc)
	}
}

// EnterFromAllocator is called when tc has run out of nursery space and
// wants to trigger a collection. Exactly one concurrent caller across
// all threads wins the race to become coordinator; every other caller
// (including every thread this one goes on to signal) ends up enlisted
// the same way a thread interrupted mid-execution would.
func (r *Registry) EnterFromAllocator(tc *ThreadContext) {
	r.startingMu.Lock()

	numGCThreads := uint32(len(r.threads))
	if r.expectedGCThreads.CompareAndSwap(0, numGCThreads) {
		seq := r.gcSeqNumber.Add(1)
		cycleID := uuid.New().String()
		r.lastCycleID.Store(cycleID)
		if r.logEnabled.Load() {
			log.Printf("gcorch: cycle %d (%s) starting, coordinator=thread-%d, expecting %d threads",
				seq, cycleID, tc.ID, numGCThreads)
		}

		r.startingGC.Add(1)
		r.signalAllBut(tc)
		r.startingMu.Unlock()

		r.waitForAllThreads()
		r.runGC(tc)
		r.releaseStolenThreads()

		r.startingGC.Store(0)
		r.expectedGCThreads.Store(0)
		if r.logEnabled.Load() {
			log.Printf("gcorch: cycle %d (%s) complete", seq, cycleID)
		}
		return
	}

	r.startingMu.Unlock()
	r.EnterFromInterrupt(tc)
}

// EnterFromInterrupt is called when tc reaches a safe point and finds
// itself StatusInterrupt, or when tc loses the coordinator election in
// EnterFromAllocator: some other thread is coordinating a collection,
// and tc just needs to enlist and wait. Once the cycle completes, a
// StatusInterrupt tc is returned to StatusNone so it can resume
// ordinary execution (and, later, legally call MarkThreadBlocked
// again). A StatusStolen thread is counted in by the coordinator itself,
// and this method leaves a StatusStolen status unchanged.
func (r *Registry) EnterFromInterrupt(tc *ThreadContext) {
	r.startingGC.Add(1)
	r.waitForAllThreads()
	r.runGC(tc)
	tc.status.CompareAndSwap(uint32(StatusInterrupt), uint32(StatusNone))
}

// PollSafepoint is what a mutator calls at a safe point — a point where
// it holds no reference a tracer couldn't also find by other means — to
// give a coordinator the chance to enlist it. Without some thread
// calling this periodically, a coordinator's signalOneThread can mark a
// passive peer StatusInterrupt and then wait forever: nothing else ever
// notices that status and joins the cycle on the peer's behalf.
func (r *Registry) PollSafepoint(tc *ThreadContext) {
	if Status(tc.status.Load()) == StatusInterrupt {
		r.EnterFromInterrupt(tc)
	}
}

// MarkThreadBlocked is called by tc immediately before it enters a
// blocking native call. It removes tc from consideration for the
// current safe-point protocol, unless a coordinator has already
// decided to interrupt tc — in which case tc must enlist in that
// collection instead of blocking.
//
// It panics if tc's status is anything other than StatusNone or
// StatusInterrupt when called, since that indicates tc called this
// method out of protocol (e.g. while already blocked).
func (r *Registry) MarkThreadBlocked(tc *ThreadContext) {
	if tc.status.CompareAndSwap(uint32(StatusNone), uint32(StatusUnable)) {
		return
	}
	if Status(tc.status.Load()) == StatusInterrupt {
		r.EnterFromInterrupt(tc)
		return
	}
	panic("gcorch: invalid GC status observed marking thread blocked")
}

// MarkThreadUnblocked is called by tc immediately after its blocking
// native call returns. If a coordinator stole tc's participation while
// it was blocked (StatusStolen), tc has already been counted into the
// current cycle and must wait for it to finish before resuming.
func (r *Registry) MarkThreadUnblocked(tc *ThreadContext) {
	for !tc.status.CompareAndSwap(uint32(StatusUnable), uint32(StatusNone)) {
		runtime.Gosched()
	}
}
