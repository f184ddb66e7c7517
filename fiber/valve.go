// File: fiber/valve.go
//
// Serial valve: two-phase tasks whose first phases run concurrently
// while second phases commit in strict submission order. The only
// shared state is the atomic tail latch; no mutex is ever held across a
// phase.

package fiber

import (
	"sync/atomic"

	"github.com/pmconrad/fc/api"
)

// SerialValve orders the commit phase of pipelined tasks. The zero
// value is not usable; call NewSerialValve.
type SerialValve struct {
	// tail is the latch of the most recently drawn ticket. nil means
	// the valve is shut.
	tail atomic.Pointer[Promise[struct{}]]
}

// NewSerialValve creates an open valve. The initial latch is
// pre-completed so the first submission's second phase runs immediately
// after its first.
func NewSerialValve() *SerialValve {
	v := &SerialValve{}
	start := NewPromise[struct{}]()
	start.Set(struct{}{})
	v.tail.Store(start)
	return v
}

// DoSerial runs f1, waits for the previous submission's turn to pass,
// then runs f2. For any two calls A before B, A's f2 completes before
// B's f2 begins; f1 phases interleave freely. If f1 fails, f2 is
// skipped but the next submission is still released. Submitting to a
// shut valve is a programming error.
func (v *SerialValve) DoSerial(f1, f2 func() error) error {
	mine := NewPromise[struct{}]()
	var prev *Promise[struct{}]
	for {
		prev = v.tail.Load()
		if prev == nil {
			panic(api.Programmingf("valve is shutting down"))
		}
		if v.tail.CompareAndSwap(prev, mine) {
			break
		}
	}
	defer mine.Set(struct{}{})
	if err := f1(); err != nil {
		return err
	}
	prev.Future().Wait()
	return f2()
}

// Close shuts the valve and waits for the last in-flight commit. New
// submissions fail after Close begins.
func (v *SerialValve) Close() {
	if last := v.tail.Swap(nil); last != nil {
		last.Future().Wait()
	}
}
