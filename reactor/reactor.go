// File: reactor/reactor.go
// Package reactor bridges completion-style asynchronous I/O into the
// fiber model. Submitted operations are executed by a dedicated pool of
// reactor threads (separate from the fiber worker pool); each operation
// resolves a promise that the submitting fiber awaits, so only that
// fiber suspends.
//
// Readiness multiplexing itself is delegated to the runtime's network
// poller; the reactor threads drive operation execution and run the
// completion handlers. A panic escaping a handler is logged and the
// loop continues.

package reactor

import (
	"os"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/pmconrad/fc/api"
	"github.com/pmconrad/fc/fiber"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
	Timestamp().Str("component", "reactor").Logger()

// opRecord is one submitted I/O operation. It owns a share of the
// buffer (if any) so the buffer outlives the submitting fiber even when
// that fiber unwinds on a cancellation path before completion.
type opRecord struct {
	kind string
	buf  []byte
	run  func()
}

// Reactor executes I/O operations on a fixed set of threads. Most
// callers use the process-wide Default instance.
type Reactor struct {
	ops       chan *opRecord
	guard     chan struct{} // the work guard: closing it ends the loops
	wg        sync.WaitGroup
	threads   int
	shutdown  atomic.Bool
	closeOnce sync.Once
}

// New starts a reactor with the given number of loop threads.
func New(threads int) *Reactor {
	api.Assert(threads > 0, "reactor needs at least one thread")
	r := &Reactor{
		ops:     make(chan *opRecord, 256),
		guard:   make(chan struct{}),
		threads: threads,
	}
	for i := 0; i < threads; i++ {
		r.wg.Add(1)
		go r.loop(i)
	}
	return r
}

func (r *Reactor) loop(i int) {
	defer r.wg.Done()
	for {
		select {
		case op := <-r.ops:
			r.execute(op)
		case <-r.guard:
			// drain what was already submitted, then exit
			for {
				select {
				case op := <-r.ops:
					r.execute(op)
				default:
					return
				}
			}
		}
	}
}

func (r *Reactor) execute(op *opRecord) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error().
				Str("op", op.kind).
				Interface("panic", rec).
				Str("stack", string(debug.Stack())).
				Msg("unhandled panic in reactor loop")
		}
	}()
	op.run()
	opsTotal.WithLabelValues(op.kind).Inc()
}

// Threads returns the loop thread count.
func (r *Reactor) Threads() int { return r.threads }

// Shutdown releases the work guard, drains submitted operations and
// joins the loop threads. Operations submitted afterwards fail with
// cancelled.
func (r *Reactor) Shutdown() {
	r.closeOnce.Do(func() {
		r.shutdown.Store(true)
		close(r.guard)
		r.wg.Wait()
	})
}

// submit queues op, or reports false when the reactor is shut down.
func (r *Reactor) submit(op *opRecord) bool {
	if r.shutdown.Load() {
		return false
	}
	r.ops <- op
	return true
}

// submitOp queues a closure completing p; a shut-down reactor fails the
// promise with cancelled.
func submitOp[T any](r *Reactor, kind string, buf []byte, p *fiber.Promise[T], run func()) *fiber.Future[T] {
	if !r.submit(&opRecord{kind: kind, buf: buf, run: run}) {
		p.Fail(api.Cancelledf(nil, "reactor is shut down"))
	}
	return p.Future()
}

// Process-wide default reactor. Its thread count may be set exactly
// once before first use.
var defaults struct {
	once    sync.Once
	r       *Reactor
	threads atomic.Int32
}

// SetNumThreads fixes the default reactor's thread count. Calling it
// twice, or after the default reactor started, is a programming error.
func SetNumThreads(n int) {
	api.Assert(n > 0 && n <= 1<<15, "invalid reactor thread count %d", n)
	api.Assert(defaults.threads.CompareAndSwap(0, int32(n)),
		"reactor thread count already set or reactor already started")
}

// NumThreads returns the configured default thread count, falling back
// to max(hardware parallelism, 8) like the default reactor itself.
func NumThreads() int {
	if n := defaults.threads.Load(); n > 0 {
		return int(n)
	}
	n := runtime.NumCPU()
	if n < 8 {
		n = 8
	}
	return n
}

// Default returns the process-wide reactor, starting it on first use.
func Default() *Reactor {
	defaults.once.Do(func() {
		n := int(defaults.threads.Swap(-1)) // locks out SetNumThreads
		if n <= 0 {
			n = runtime.NumCPU()
			if n < 8 {
				n = 8
			}
		}
		defaults.threads.Store(int32(n))
		defaults.r = New(n)
	})
	return defaults.r
}
