package gcorch

import "sync/atomic"

// Status is the GC-participation state of a single thread.
type Status uint32

const (
	// StatusNone means the thread is running ordinary code and has not
	// been asked to participate in a collection.
	StatusNone Status = iota

	// StatusInterrupt means a coordinator has asked this thread to join
	// the current collection at its next safe point.
	StatusInterrupt

	// StatusUnable means the thread is blocked in a native call or
	// otherwise unable to reach a safe point right now.
	StatusUnable

	// StatusStolen means a coordinator found the thread StatusUnable
	// and is counting it in to the collection anyway, since a blocked
	// thread holds no Go-heap references a tracer would need to see.
	StatusStolen
)

// Collector performs the actual nursery trace-and-copy. It is supplied
// by the embedder; this package only gets every thread to a safe point
// before calling it.
type Collector interface {
	CollectNursery(tc *ThreadContext)
}

// ThreadContext is one thread's participation state in the collector's
// cooperative protocol.
type ThreadContext struct {
	ID     int
	status atomic.Uint32
}

// NewThreadContext returns a ThreadContext in StatusNone, ready to
// register with a Registry.
func NewThreadContext(id int) *ThreadContext {
	return &ThreadContext{ID: id}
}

// Status returns the thread's current GC-participation state.
func (tc *ThreadContext) Status() Status {
	return Status(tc.status.Load())
}
