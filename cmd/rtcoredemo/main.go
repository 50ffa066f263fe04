// rtcoredemo - exercises a runtime core end to end: spins up a handful
// of mutator goroutines that allocate and intern callsites, triggers
// stop-the-world collections under contention, and prints a diagnostic
// snapshot at the end.
//
// Usage:
//   rtcoredemo [-mutators N] [-allocations N] [-config DIR]
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/chazu/maggiecore/callsite"
	"github.com/chazu/maggiecore/gcorch"
	"github.com/chazu/maggiecore/rtconfig"
	"github.com/chazu/maggiecore/rtcore"
	"github.com/chazu/maggiecore/rtdiag"
)

// nurseryCollector is a minimal Collector that just counts the
// collections it ran; a real embedder would plug in an actual
// tracing/copying nursery sweep here.
type nurseryCollector struct {
	mu    sync.Mutex
	runs  int
	byThd map[int]int
}

func newNurseryCollector() *nurseryCollector {
	return &nurseryCollector{byThd: make(map[int]int)}
}

func (c *nurseryCollector) CollectNursery(tc *gcorch.ThreadContext) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs++
	c.byThd[tc.ID]++
}

func main() {
	mutators := flag.Int("mutators", 4, "number of mutator goroutines")
	allocations := flag.Int("allocations", 2000, "callsite intern attempts per mutator")
	configDir := flag.String("config", "", "directory containing runtime.toml (optional)")
	flag.Parse()

	var tuning *rtconfig.Tuning
	if *configDir != "" {
		var err error
		tuning, err = rtconfig.Load(*configDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rtcoredemo: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("loaded tuning from %s: arity_limit=%d load_factor=%.2f\n",
			tuning.Dir, tuning.Callsite.ArityLimit, tuning.HashIdx.LoadFactor)
	}

	collector := newNurseryCollector()
	inst := rtcore.NewTuned(collector, tuning)
	inst.GC.SetLogging(true)

	publisher := rtdiag.NewSnapshotPublisher(inst, time.Second)
	publisher.Start()
	defer publisher.Stop()

	var wg sync.WaitGroup
	wg.Add(*mutators)
	for i := 0; i < *mutators; i++ {
		go runMutator(inst, i, *allocations, &wg)
	}
	wg.Wait()

	snap := publisher.PublishNow()
	fmt.Println(snap.String())

	data, err := rtdiag.MarshalStats(snap)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rtcoredemo: marshal stats: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("snapshot: %d bytes of canonical CBOR\n", len(data))

	collector.mu.Lock()
	fmt.Printf("collections run: %d\n", collector.runs)
	collector.mu.Unlock()
}

var sampleShapes = [][]callsite.ArgFlag{
	{},
	{callsite.ArgObj},
	{callsite.ArgObj, callsite.ArgObj},
	{callsite.ArgObj, callsite.ArgInt},
	{callsite.ArgObj, callsite.ArgStr, callsite.ArgNum},
	{callsite.ArgInt, callsite.ArgInt, callsite.ArgInt, callsite.ArgObj},
}

func runMutator(inst *rtcore.Instance, id, allocations int, wg *sync.WaitGroup) {
	defer wg.Done()

	tc := inst.SpawnThread()
	defer inst.RetireThread(tc)

	rnd := rand.New(rand.NewSource(int64(id) + 1))

	for i := 0; i < allocations; i++ {
		// Every iteration is a safe point: no reference here is held
		// anywhere a tracer couldn't also find it. Without this poll,
		// a coordinator that signals this thread (rather than racing
		// it for the coordinator role) would wait on it forever.
		inst.GC.PollSafepoint(tc)

		shape := sampleShapes[rnd.Intn(len(sampleShapes))]
		rtcore.CallsiteFor(inst.Callsites, shape...)

		if rnd.Intn(500) == 0 {
			inst.GC.EnterFromAllocator(tc)
		}

		if rnd.Intn(2000) == 0 {
			inst.GC.MarkThreadBlocked(tc)
			time.Sleep(time.Microsecond)
			inst.GC.MarkThreadUnblocked(tc)
		}
	}
}
