// File: fiber/locals.go
//
// Fiber-local variables. A Local is a typed slot; each fiber sees its
// own value. Storage lives on the fiber and is only ever touched from
// the fiber's goroutine, so no locking is needed.

package fiber

import (
	"sync/atomic"

	"github.com/pmconrad/fc/api"
)

var nextLocalID atomic.Uint64

// Local is a fiber-local variable of type T. Construct one per slot,
// typically at package level.
type Local[T any] struct {
	id uint64
}

// NewLocal allocates a fresh fiber-local slot.
func NewLocal[T any]() *Local[T] {
	return &Local[T]{id: nextLocalID.Add(1)}
}

// Get returns the calling fiber's value for the slot. Accessing
// fiber-locals outside a fiber is a programming error.
func (l *Local[T]) Get() (T, bool) {
	f := Current()
	api.Assert(f != nil, "fiber-local access outside a fiber")
	v, ok := f.locals[l.id]
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// Set stores the calling fiber's value for the slot. The value travels
// with the fiber across migrations.
func (l *Local[T]) Set(v T) {
	f := Current()
	api.Assert(f != nil, "fiber-local access outside a fiber")
	if f.locals == nil {
		f.locals = make(map[uint64]any)
	}
	f.locals[l.id] = v
}
