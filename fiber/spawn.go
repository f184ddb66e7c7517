// File: fiber/spawn.go
//
// Spawn façade: create fibers, optionally bound to a destination
// worker, and observe their results through futures.

package fiber

import (
	"fmt"
	"time"

	"github.com/pmconrad/fc/api"
)

type spawnConfig struct {
	name    string
	dest    WorkerID
	hasDest bool
}

// SpawnOption configures Spawn and ScheduleAt.
type SpawnOption func(*spawnConfig)

// WithName sets the fiber name used by logging. One-shot, like
// SetFiberName.
func WithName(name string) SpawnOption {
	return func(c *spawnConfig) { c.name = name }
}

// OnWorker pins the fiber's initial destination to a specific worker.
// The worker must be live; an unknown id is a programming error.
func OnWorker(id WorkerID) SpawnOption {
	return func(c *spawnConfig) { c.dest = id; c.hasDest = true }
}

// Spawn creates a fiber running fn and returns a future over its
// result. Without OnWorker the fiber runs on the calling fiber's
// current worker; calling Spawn from a plain goroutine then is a
// programming error. A panic inside fn is captured and surfaces as the
// future's error.
func Spawn[R any](fn func() (R, error), opts ...SpawnOption) *Future[R] {
	var cfg spawnConfig
	for _, o := range opts {
		o(&cfg)
	}
	p := NewPromise[R]()
	f := newFiber(func() { runBody(p, cfg.name, fn) })
	dispatchFiber(f, cfg)
	return p.Future()
}

// ScheduleAt is Spawn gated on a deadline: the fiber sleeps until t
// before running fn. A deadline in the past runs promptly.
func ScheduleAt[R any](fn func() (R, error), t time.Time, opts ...SpawnOption) *Future[R] {
	return Spawn(func() (R, error) {
		SleepUntil(t)
		return fn()
	}, opts...)
}

// Migrate moves the calling fiber to another worker. It returns on the
// destination; migrating to the current worker is a no-op. Fiber-local
// state travels with the fiber, the observed thread name does not.
func Migrate(dest WorkerID) {
	f := Current()
	if f == nil {
		panic(api.Programmingf("Migrate called outside a fiber"))
	}
	dispatch.setDestination(f, dest)
	f.parkYield()
}

func dispatchFiber(f *Fiber, cfg spawnConfig) {
	cur := Current()
	switch {
	case cfg.hasDest && cur != nil:
		// Record the migration, then awaken locally; the home scheduler
		// performs the handoff through the dispatcher.
		home := cur.sched.Load()
		f.sched.Store(home)
		dispatch.setDestination(f, cfg.dest)
		home.AddFiber(f)
	case cfg.hasDest:
		target := dispatch.schedulerFor(cfg.dest)
		if target == nil {
			panic(api.Programmingf("spawn target worker %d not found", cfg.dest))
		}
		f.sched.Store(target)
		target.AddFiber(f)
	default:
		if cur == nil {
			panic(api.Programmingf("Spawn without OnWorker outside a fiber"))
		}
		home := cur.sched.Load()
		f.sched.Store(home)
		home.AddFiber(f)
	}
}

func runBody[R any](p *Promise[R], name string, fn func() (R, error)) {
	if name != "" {
		SetFiberName(name)
	}
	defer func() {
		if r := recover(); r != nil {
			p.Fail(fmt.Errorf("fiber panicked: %v", r))
		}
	}()
	v, err := fn()
	if err != nil {
		p.Fail(err)
		return
	}
	p.Set(v)
}
