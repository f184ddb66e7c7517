// File: fiber/fiber.go
// Package fiber implements the cooperative fiber runtime: lightweight
// stackful tasks multiplexed onto a fixed set of worker threads, with
// explicit cross-thread migration, promise/future synchronization and a
// serial valve primitive.
//
// A fiber is backed by a dedicated goroutine that only runs while it
// holds its worker's run token. Suspension points (future waits, sleeps,
// yields, contended fiber mutexes) hand the token back to the worker
// scheduler, which picks the next runnable fiber. There is no
// preemption; a fiber that does not yield starves its worker.

package fiber

import (
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petermattis/goid"
	"github.com/rs/zerolog"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
	Timestamp().Str("component", "fiber").Logger()

type parkState int

const (
	parkSuspended parkState = iota // waits for an external awaken
	parkYielded                    // still runnable, requeue at the tail
	parkDone                       // fiber body returned
)

var nextFiberID atomic.Uint64

// goroutine id -> *Fiber, maintained by the fiber goroutines themselves.
var running sync.Map

// Fiber is a cooperatively scheduled stackful task. Fibers are created
// through Spawn, ScheduleAt or DoParallel and are not constructed
// directly.
type Fiber struct {
	id    uint64
	free  bool // pool fiber, may run on any pool worker
	body  func()
	sched atomic.Pointer[Scheduler] // home worker

	resume chan struct{}  // scheduler -> fiber run token
	parked chan parkState // fiber -> scheduler handoff

	// waiting gates external awakens: only the first awaken after
	// prepareWait enqueues the fiber, later ones are no-ops.
	waiting atomic.Bool
	started bool // scheduler-only

	name    string // one-shot, owning fiber only
	nameSet bool
	locals  map[uint64]any // owning fiber only
}

func newFiber(body func()) *Fiber {
	return &Fiber{
		id:     nextFiberID.Add(1),
		body:   body,
		resume: make(chan struct{}),
		parked: make(chan parkState),
	}
}

// Current returns the fiber executing on the calling goroutine, or nil
// when called from a plain goroutine.
func Current() *Fiber {
	if f, ok := running.Load(goid.Get()); ok {
		return f.(*Fiber)
	}
	return nil
}

// ID returns the fiber's stable identity.
func (f *Fiber) ID() uint64 { return f.id }

// run is the fiber goroutine body. It parks until the scheduler grants
// the first run token, executes the body, and reports completion.
func (f *Fiber) run() {
	gid := goid.Get()
	running.Store(gid, f)
	defer func() {
		if r := recover(); r != nil {
			// Spawn wraps bodies with result capture; anything escaping
			// to here is logged and the fiber is torn down.
			logger.Error().
				Uint64("fiber", f.id).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("fiber terminated by panic")
		}
		running.Delete(gid)
		f.parked <- parkDone
	}()
	<-f.resume
	f.body()
}

// prepareWait arms the awaken gate. Must be called on the fiber's own
// goroutine before registering an awaken hook and parking.
func (f *Fiber) prepareWait() { f.waiting.Store(true) }

// awaken makes a suspended fiber runnable on its home worker. Safe to
// call from any goroutine, including reactor completion handlers. Calls
// while the fiber is not waiting are no-ops, so stale timer hooks are
// harmless.
func (f *Fiber) awaken() {
	if !f.waiting.CompareAndSwap(true, false) {
		return
	}
	if s := f.sched.Load(); s != nil {
		s.AddFiber(f)
	}
}

// park suspends the fiber until the next run token. The matching awaken
// may already have been delivered; the scheduler will not grant the
// token before observing the park.
func (f *Fiber) park() {
	f.parked <- parkSuspended
	<-f.resume
}

// parkYield hands the token back but stays runnable.
func (f *Fiber) parkYield() {
	f.parked <- parkYielded
	<-f.resume
}

// Yield voluntarily hands the worker to the next runnable fiber. Outside
// a fiber it is a no-op.
func Yield() {
	if f := Current(); f != nil {
		f.parkYield()
	}
}

// Sleep suspends the current fiber for at least d. From a plain
// goroutine it degrades to time.Sleep.
func Sleep(d time.Duration) {
	SleepUntil(time.Now().Add(d))
}

// SleepUntil suspends the current fiber until t. Deadlines in the past
// return promptly.
func SleepUntil(t time.Time) {
	f := Current()
	if f == nil {
		if d := time.Until(t); d > 0 {
			time.Sleep(d)
		}
		return
	}
	for {
		d := time.Until(t)
		if d <= 0 {
			return
		}
		f.prepareWait()
		timer := time.AfterFunc(d, f.awaken)
		f.park()
		timer.Stop()
	}
}
