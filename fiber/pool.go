// File: fiber/pool.go
//
// Shared worker pool for free fibers. Pool workers run a scheduler
// variant whose policy prefers locally pinned work and otherwise claims
// free fibers from the pool's shared ready queue.

package fiber

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/pmconrad/fc/api"
)

// WorkerPool owns a fixed set of worker threads sharing one ready queue
// of free fibers. A fiber posted to the pool has no home and may run on
// any pool worker.
type WorkerPool struct {
	shared    chan *Fiber
	scheds    []*Scheduler
	closing   atomic.Bool
	closeOnce sync.Once
}

const sharedQueueDepth = 4096

// NewWorkerPool starts numWorkers pool threads and returns once all of
// them are enlisted and ready.
func NewWorkerPool(numWorkers int) *WorkerPool {
	api.Assert(numWorkers > 0, "a worker pool should have at least one thread")
	p := &WorkerPool{shared: make(chan *Fiber, sharedQueueDepth)}
	var ready sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		pol := &poolPolicy{local: newFIFOPolicy(), pool: p}
		s := newScheduler(pol)
		pol.owner = s
		p.scheds = append(p.scheds, s)
		ready.Add(1)
		go func(i int, s *Scheduler) {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			dispatch.enlist(s)
			name := fmt.Sprintf("pool worker #%d", i)
			s.threadName.set(name)
			setOSThreadName(name)
			ready.Done()
			s.run()
			dispatch.delist(s)
		}(i, s)
	}
	ready.Wait()
	return p
}

// post hands a free fiber to the pool; any idle worker will claim it.
// Posting to a closed pool is a programming error.
func (p *WorkerPool) post(f *Fiber) {
	if p.closing.Load() {
		panic(api.Programmingf("posting to a closed worker pool"))
	}
	f.free = true
	p.shared <- f
	p.notifyAll()
}

// Submit runs fn as a free fiber on the pool.
func (p *WorkerPool) Submit(fn func()) {
	f := newFiber(fn)
	p.post(f)
}

func (p *WorkerPool) notifyAll() {
	for _, s := range p.scheds {
		s.notify()
	}
}

// Close stops accepting work, wakes all workers and joins them.
func (p *WorkerPool) Close() {
	p.closeOnce.Do(func() {
		p.closing.Store(true)
		for _, s := range p.scheds {
			s.stop()
		}
		for _, s := range p.scheds {
			<-s.done
		}
	})
}

// poolPolicy wraps the FIFO policy: fibers pinned to this worker take
// precedence, free fibers go through the pool's shared queue so any
// idle worker can resume them.
type poolPolicy struct {
	local *fifoPolicy
	pool  *WorkerPool
	owner *Scheduler
}

func (p *poolPolicy) Awakened(f *Fiber) {
	if !f.free {
		p.local.Awakened(f)
		return
	}
	select {
	case p.pool.shared <- f:
		p.pool.notifyAll()
	default:
		// shared queue full, keep it local rather than blocking
		p.local.Awakened(f)
	}
}

func (p *poolPolicy) PickNext() *Fiber {
	if f := p.local.PickNext(); f != nil {
		return f
	}
	select {
	case f := <-p.pool.shared:
		f.sched.Store(p.owner)
		return f
	default:
		return nil
	}
}

func (p *poolPolicy) HasReady() bool {
	return p.local.HasReady() || len(p.pool.shared) > 0
}

var defaultPool struct {
	once sync.Once
	pool *WorkerPool
	size atomic.Int32
}

// SetPoolSize fixes the shared pool's thread count. May be called once,
// before the pool is first used; calling it twice or after first use is
// a programming error.
func SetPoolSize(n int) {
	api.Assert(n > 0, "pool size must be positive")
	api.Assert(defaultPool.size.CompareAndSwap(0, int32(n)),
		"worker pool size already set or pool already started")
}

func getWorkerPool() *WorkerPool {
	defaultPool.once.Do(func() {
		n := int(defaultPool.size.Swap(-1)) // locks out SetPoolSize
		if n <= 0 {
			n = runtime.NumCPU()
			if n < 8 {
				n = 8
			}
		}
		defaultPool.pool = NewWorkerPool(n)
	})
	return defaultPool.pool
}

// DoParallel submits fn to the shared worker pool and returns a future
// over its result.
func DoParallel[R any](fn func() (R, error)) *Future[R] {
	p := NewPromise[R]()
	f := newFiber(func() { runBody(p, "", fn) })
	getWorkerPool().post(f)
	return p.Future()
}
