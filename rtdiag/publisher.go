package rtdiag

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/chazu/maggiecore/rtcore"
)

// DefaultPublishInterval is the default interval between snapshots
// when none is specified.
const DefaultPublishInterval = 10 * time.Second

// SnapshotPublisher periodically captures a Stats snapshot of an
// Instance and publishes the latest one for any reader to poll,
// without blocking the instance's own mutators. It is the diagnostics
// analogue of a host VM's periodic registry sweep: same ticker/stop
// channel/published-stats shape, repointed at read-only introspection
// instead of cleanup.
type SnapshotPublisher struct {
	inst     *rtcore.Instance
	interval time.Duration
	enabled  atomic.Bool

	mu      sync.Mutex
	stop    chan struct{}
	stopped chan struct{}

	publishCount atomic.Uint64
	last         atomic.Value // *Stats
}

// NewSnapshotPublisher returns a publisher for inst. interval <= 0
// uses DefaultPublishInterval. The publisher starts enabled but idle;
// call Start to begin the background goroutine.
func NewSnapshotPublisher(inst *rtcore.Instance, interval time.Duration) *SnapshotPublisher {
	if interval <= 0 {
		interval = DefaultPublishInterval
	}
	p := &SnapshotPublisher{inst: inst, interval: interval}
	p.enabled.Store(true)
	return p
}

// Start begins the periodic publish goroutine. Safe to call multiple
// times; only one loop ever runs.
func (p *SnapshotPublisher) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stop != nil {
		return
	}
	p.stop = make(chan struct{})
	p.stopped = make(chan struct{})

	stopCh := p.stop
	stoppedCh := p.stopped
	go p.loop(stopCh, stoppedCh)
}

// Stop halts the publish goroutine and waits for it to exit. Safe to
// call on a publisher that was never started.
func (p *SnapshotPublisher) Stop() {
	p.mu.Lock()
	stopCh := p.stop
	stoppedCh := p.stopped
	p.stop = nil
	p.stopped = nil
	p.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-stoppedCh
	}
}

// SetEnabled toggles whether the running loop actually publishes.
func (p *SnapshotPublisher) SetEnabled(enabled bool) {
	p.enabled.Store(enabled)
}

// PublishCount returns how many snapshots have been published.
func (p *SnapshotPublisher) PublishCount() uint64 {
	return p.publishCount.Load()
}

// Latest returns the most recently published snapshot, or nil if none
// has been published yet.
func (p *SnapshotPublisher) Latest() *Stats {
	v := p.last.Load()
	if v == nil {
		return nil
	}
	return v.(*Stats)
}

// PublishNow captures and publishes a snapshot immediately, regardless
// of the timer.
func (p *SnapshotPublisher) PublishNow() *Stats {
	s := Snapshot(p.inst)
	p.last.Store(s)
	p.publishCount.Add(1)
	return s
}

func (p *SnapshotPublisher) loop(stopCh <-chan struct{}, stoppedCh chan struct{}) {
	defer close(stoppedCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if p.enabled.Load() {
				p.PublishNow()
			}
		}
	}
}
