package voice

import (
	"sync"
	"time"
)

const runtimeQueueCapacity = 64

// runtime serializes every mutation of coordinator state onto one goroutine.
// Public methods and adapter/timer callbacks post closures; guard checks and
// sets therefore happen within a single queue turn and can never interleave.
type runtime struct {
	queue   chan func()
	closeCh chan struct{}
	done    chan struct{}

	startOnce sync.Once
	endOnce   sync.Once
}

func newRuntime() *runtime {
	return &runtime{
		queue:   make(chan func(), runtimeQueueCapacity),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (r *runtime) start() {
	r.startOnce.Do(func() {
		go func() {
			defer close(r.done)
			for {
				select {
				case <-r.closeCh:
					return
				case fn := <-r.queue:
					fn()
				}
			}
		}()
	})
}

func (r *runtime) end() {
	r.endOnce.Do(func() { close(r.closeCh) })
}

func (r *runtime) isClosed() bool {
	select {
	case <-r.closeCh:
		return true
	default:
		return false
	}
}

// post enqueues work for the runtime goroutine. Posting after close is
// silently dropped.
func (c *Coordinator) post(fn func()) {
	select {
	case c.runtime.queue <- fn:
	case <-c.runtime.closeCh:
	}
}

// after schedules fn on the runtime goroutine once d elapses. The returned
// timer only stops the delivery goroutine; stale fires that were already
// queued are filtered by the callers' generation counters.
func (c *Coordinator) after(d time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(d, func() { c.post(fn) })
}
