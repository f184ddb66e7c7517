// File: fiber/scheduler.go
//
// Per-worker scheduler. Each worker thread owns exactly one Scheduler;
// all scheduler state except the intake queue is single-owner and
// touched only from the worker goroutine. External producers hand
// fibers over through the lock-free intake queue via AddFiber.

package fiber

import (
	"time"

	"github.com/eapache/queue"

	"github.com/pmconrad/fc/internal/concurrency"
)

// Policy is the inner runnable selector of a scheduler. Implementations
// are single-owner; the scheduler never calls them concurrently. Any
// fair selector works, round-robin FIFO is the reference.
type Policy interface {
	// Awakened hands a runnable fiber to the policy.
	Awakened(f *Fiber)
	// PickNext removes and returns the next fiber, or nil.
	PickNext() *Fiber
	// HasReady reports whether the policy holds runnable fibers.
	HasReady() bool
}

// fifoPolicy is the reference round-robin policy.
type fifoPolicy struct {
	q *queue.Queue
}

func newFIFOPolicy() *fifoPolicy {
	return &fifoPolicy{q: queue.New()}
}

func (p *fifoPolicy) Awakened(f *Fiber) { p.q.Add(f) }

func (p *fifoPolicy) PickNext() *Fiber {
	if p.q.Length() == 0 {
		return nil
	}
	return p.q.Remove().(*Fiber)
}

func (p *fifoPolicy) HasReady() bool { return p.q.Length() > 0 }

// Scheduler multiplexes fibers over one worker thread.
type Scheduler struct {
	id     WorkerID
	policy Policy
	intake *concurrency.MPSCQueue[*Fiber]

	notifyCh chan struct{}
	stopping chan struct{}
	done     chan struct{}

	threadName nameCell
}

func newScheduler(policy Policy) *Scheduler {
	return &Scheduler{
		policy:   policy,
		intake:   concurrency.NewMPSCQueue[*Fiber](),
		notifyCh: make(chan struct{}, 1),
		stopping: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// ID returns the worker id this scheduler is enlisted under.
func (s *Scheduler) ID() WorkerID { return s.id }

// AddFiber hands a fiber over from another thread: push to the intake
// queue, then wake the worker. This is the only cross-thread entry point
// into a scheduler.
func (s *Scheduler) AddFiber(f *Fiber) {
	s.intake.Push(f)
	s.notify()
}

// notify wakes the worker if it is blocked in suspendUntil.
func (s *Scheduler) notify() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
	}
}

// onAwakened routes a runnable fiber into the inner policy, unless a
// pending migration claims it first.
func (s *Scheduler) onAwakened(f *Fiber) {
	if !dispatch.checkMigrate(s, f) {
		s.policy.Awakened(f)
	}
}

// requeue drains the intake queue into the inner policy so fairness
// rules apply to migrated-in fibers too.
func (s *Scheduler) requeue() {
	for {
		f, ok := s.intake.Pop()
		if !ok {
			return
		}
		s.onAwakened(f)
	}
}

// pickNext returns the next locally runnable fiber. A just-picked fiber
// may have been marked for migration after it was last awakened, so the
// migration check repeats until a local fiber is found.
func (s *Scheduler) pickNext() *Fiber {
	s.requeue()
	f := s.policy.PickNext()
	for f != nil && dispatch.checkMigrate(s, f) {
		f = s.policy.PickNext()
	}
	return f
}

// hasReady reports whether local or intake work exists.
func (s *Scheduler) hasReady() bool {
	return s.policy.HasReady() || !s.intake.Empty()
}

// suspendUntil blocks the worker until deadline or notify, whichever
// comes first. A zero deadline means "until notified".
func (s *Scheduler) suspendUntil(deadline time.Time) {
	if deadline.IsZero() {
		select {
		case <-s.notifyCh:
		case <-s.stopping:
		}
		return
	}
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case <-s.notifyCh:
	case <-timer.C:
	case <-s.stopping:
	}
}

// run is the worker loop. It exits once stop was requested and the
// runnable set has drained.
func (s *Scheduler) run() {
	defer close(s.done)
	for {
		f := s.pickNext()
		if f == nil {
			select {
			case <-s.stopping:
				return
			default:
			}
			s.suspendUntil(time.Time{})
			continue
		}
		s.runFiber(f)
	}
}

// runFiber grants the run token and waits for the fiber to hand it
// back. The scheduler cannot pick another fiber until then, which is
// what makes the awaken-before-park race benign.
func (s *Scheduler) runFiber(f *Fiber) {
	if !f.started {
		f.started = true
		go f.run()
	}
	f.resume <- struct{}{}
	state := <-f.parked
	switch state {
	case parkYielded:
		s.onAwakened(f)
	case parkSuspended, parkDone:
	}
}

// stop requests loop exit and wakes the worker.
func (s *Scheduler) stop() {
	close(s.stopping)
	s.notify()
}
