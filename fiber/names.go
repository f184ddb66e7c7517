// File: fiber/names.go
//
// Thread and fiber names used by logging. Names are one-shot; when
// unset, a generated identifier is returned.

package fiber

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"

	"github.com/pmconrad/fc/api"
)

// nameCell is a one-shot name slot.
type nameCell struct {
	v atomic.Pointer[string]
}

func (c *nameCell) set(name string) {
	api.Assert(c.v.CompareAndSwap(nil, &name), "thread name already set")
}

func (c *nameCell) get() (string, bool) {
	if p := c.v.Load(); p != nil {
		return *p, true
	}
	return "", false
}

// Names of plain goroutines that called SetThreadName.
var goroutineNames sync.Map // goid -> string

// SetThreadName names the current execution context for logging: the
// hosting worker when called from a fiber, the calling goroutine
// otherwise. Setting a name twice is a programming error.
func SetThreadName(name string) {
	if f := Current(); f != nil {
		f.sched.Load().threadName.set(name)
		return
	}
	gid := goid.Get()
	_, loaded := goroutineNames.LoadOrStore(gid, name)
	api.Assert(!loaded, "thread name already set")
}

// GetThreadName returns the name of the worker the calling fiber runs
// on, or of the calling goroutine. A migrated fiber observes the name
// of its current worker.
func GetThreadName() string {
	if f := Current(); f != nil {
		s := f.sched.Load()
		if n, ok := s.threadName.get(); ok {
			return n
		}
		return fmt.Sprintf("thread #%d", s.id)
	}
	gid := goid.Get()
	if n, ok := goroutineNames.Load(gid); ok {
		return n.(string)
	}
	return fmt.Sprintf("thread #g%d", gid)
}

// SetFiberName names the current fiber. One-shot; calling it outside a
// fiber or twice is a programming error.
func SetFiberName(name string) {
	f := Current()
	api.Assert(f != nil, "SetFiberName called outside a fiber")
	api.Assert(!f.nameSet, "fiber name already set")
	f.nameSet = true
	f.name = name
}

// GetFiberName returns the current fiber's name, or a generated
// identifier when unset or when called outside a fiber.
func GetFiberName() string {
	f := Current()
	if f == nil {
		return fmt.Sprintf("fiber #g%d", goid.Get())
	}
	if f.nameSet {
		return f.name
	}
	return fmt.Sprintf("fiber #%d", f.id)
}
