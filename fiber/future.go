// File: fiber/future.go
//
// Single-shot promise/future cells. A future is fiber-aware: waiting from
// inside a fiber suspends only that fiber, waiting from a plain goroutine
// blocks on a channel. Completion callbacks are cheap awaken hooks and
// must never block; the completer runs them inline.

package fiber

import (
	"sync"
	"time"

	"github.com/pmconrad/fc/api"
)

// Promise is the producer side of a single-shot completion cell.
// Completing a promise twice is a programming error.
type Promise[T any] struct {
	fut Future[T]
}

// NewPromise creates an unsatisfied promise.
func NewPromise[T any]() *Promise[T] {
	p := &Promise[T]{}
	p.fut.ch = make(chan struct{})
	return p
}

// Future returns the observer side. The same future may be waited on by
// several fibers and goroutines.
func (p *Promise[T]) Future() *Future[T] { return &p.fut }

// Set completes the promise with a value.
func (p *Promise[T]) Set(v T) { p.fut.complete(v, nil) }

// Fail completes the promise with an error.
func (p *Promise[T]) Fail(err error) {
	var zero T
	p.fut.complete(zero, err)
}

// Done reports whether the promise has been completed.
func (p *Promise[T]) Done() bool {
	p.fut.mu.Lock()
	defer p.fut.mu.Unlock()
	return p.fut.done
}

// Future is the observer side of a promise.
type Future[T any] struct {
	mu      sync.Mutex
	done    bool
	val     T
	err     error
	waiters []func()
	ch      chan struct{} // closed on completion
}

func (f *Future[T]) complete(v T, err error) {
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		panic(api.Programmingf("promise completed twice"))
	}
	f.done = true
	f.val = v
	f.err = err
	waiters := f.waiters
	f.waiters = nil
	close(f.ch)
	f.mu.Unlock()
	for _, w := range waiters {
		w()
	}
}

// Ready reports whether the future has completed.
func (f *Future[T]) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}

// Wait blocks until the future completes. Inside a fiber this is a
// suspension point.
func (f *Future[T]) Wait() {
	cur := Current()
	if cur == nil {
		<-f.ch
		return
	}
	for {
		f.mu.Lock()
		if f.done {
			f.mu.Unlock()
			return
		}
		cur.prepareWait()
		f.waiters = append(f.waiters, cur.awaken)
		f.mu.Unlock()
		cur.park()
	}
}

// WaitFor waits up to d and reports the outcome without consuming the
// result. The fiber is never forcibly unwound on timeout.
func (f *Future[T]) WaitFor(d time.Duration) api.WaitStatus {
	deadline := time.Now().Add(d)
	cur := Current()
	if cur == nil {
		if !f.Ready() && d > 0 {
			select {
			case <-f.ch:
			case <-time.After(time.Until(deadline)):
			}
		}
	} else {
		for {
			f.mu.Lock()
			if f.done {
				f.mu.Unlock()
				break
			}
			if !time.Now().Before(deadline) {
				f.mu.Unlock()
				break
			}
			cur.prepareWait()
			f.waiters = append(f.waiters, cur.awaken)
			f.mu.Unlock()
			timer := time.AfterFunc(time.Until(deadline), cur.awaken)
			cur.park()
			timer.Stop()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case !f.done:
		return api.WaitTimeout
	case f.err != nil:
		return api.WaitError
	default:
		return api.WaitReady
	}
}

// Get waits for completion and returns the result.
func (f *Future[T]) Get() (T, error) {
	f.Wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.val, f.err
}

// Err waits for completion and returns only the error.
func (f *Future[T]) Err() error {
	_, err := f.Get()
	return err
}
