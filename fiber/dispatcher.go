// File: fiber/dispatcher.go
//
// Process-singleton dispatcher: the single point of truth for which
// worker hosts which scheduler and which fiber has been asked to move
// where. Both maps are small and guarded by one mutex; lookups happen on
// awaken and on pick, so both immediate and delayed migrations are
// caught.

package fiber

import (
	"sync"

	"github.com/pmconrad/fc/api"
)

// WorkerID identifies a live worker thread. The zero value is never a
// valid worker.
type WorkerID uint64

type dispatcher struct {
	mu         sync.Mutex
	nextID     WorkerID
	workers    map[WorkerID]*Scheduler
	migrations map[uint64]WorkerID // fiber id -> target worker
}

var dispatch = &dispatcher{
	workers:    make(map[WorkerID]*Scheduler),
	migrations: make(map[uint64]WorkerID),
}

// enlist registers a scheduler and assigns its worker id. Called from
// the scheduler's own worker goroutine before it starts running.
func (d *dispatcher) enlist(s *Scheduler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	api.Assert(s.id == 0, "trying to enlist an already registered scheduler")
	d.nextID++
	s.id = d.nextID
	d.workers[s.id] = s
}

// delist removes a scheduler at worker thread exit.
func (d *dispatcher) delist(s *Scheduler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.workers[s.id]
	api.Assert(ok, "trying to delist an unlisted scheduler")
	delete(d.workers, s.id)
}

// schedulerFor returns the live scheduler for id, or nil.
func (d *dispatcher) schedulerFor(id WorkerID) *Scheduler {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.workers[id]
}

// setDestination records a pending migration. The target must be a
// known worker; asking for an unknown one is a programming error.
func (d *dispatcher) setDestination(f *Fiber, dest WorkerID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.workers[dest]
	api.Assert(ok, "migration target worker %d not found", dest)
	d.migrations[f.id] = dest
}

// checkMigrate atomically reads and clears a pending migration for f.
// If a different, still-live worker is registered, the fiber is handed
// to it and true is returned; the caller must not run the fiber. A dead
// or same-worker target leaves the fiber where it is.
func (d *dispatcher) checkMigrate(from *Scheduler, f *Fiber) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	dest, ok := d.migrations[f.id]
	if !ok {
		return false
	}
	delete(d.migrations, f.id)
	target := d.workers[dest]
	if target == nil || target == from {
		return false
	}
	f.sched.Store(target)
	target.AddFiber(f)
	return true
}
