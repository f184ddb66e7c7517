// File: fiber/worker.go
//
// A Worker binds one OS thread to one scheduler for its lifetime.

package fiber

import (
	"runtime"
	"sync"
)

// Worker is a dedicated OS thread hosting a fiber scheduler. Fibers are
// spawned onto it with Spawn(..., OnWorker(w.ID())).
type Worker struct {
	sched     *Scheduler
	closeOnce sync.Once
}

// NewWorker starts a worker thread. The optional name becomes the
// thread name used by logging (one-shot). NewWorker returns once the
// scheduler is enlisted and ready to accept fibers.
func NewWorker(name string) *Worker {
	s := newScheduler(newFIFOPolicy())
	w := &Worker{sched: s}
	ready := make(chan struct{})
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		dispatch.enlist(s)
		if name != "" {
			s.threadName.set(name)
			setOSThreadName(name)
		}
		close(ready)
		s.run()
		dispatch.delist(s)
	}()
	<-ready
	return w
}

// ID returns the worker's id for use as a spawn destination.
func (w *Worker) ID() WorkerID { return w.sched.ID() }

// Close stops the worker after its runnable fibers have drained and
// joins the thread. Fibers left suspended on it are abandoned.
func (w *Worker) Close() {
	w.closeOnce.Do(w.sched.stop)
	<-w.sched.done
}

// CurrentWorker returns the id of the worker the calling fiber is
// currently scheduled on. The second result is false outside a fiber.
func CurrentWorker() (WorkerID, bool) {
	f := Current()
	if f == nil {
		return 0, false
	}
	if s := f.sched.Load(); s != nil {
		return s.ID(), true
	}
	return 0, false
}
