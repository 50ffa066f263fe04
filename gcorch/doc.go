// Package gcorch orchestrates a stop-the-world garbage collection cycle
// across a set of cooperating threads of execution.
//
// It does not collect anything itself — the actual nursery trace and
// copy is supplied by a Collector the embedder plugs in. What this
// package owns is getting every thread to a safe point at (almost) the
// same time: electing one thread as coordinator, signalling the rest,
// handling threads that are blocked in a native call and so can't be
// interrupted, and rendezvousing before the collector runs.
package gcorch
