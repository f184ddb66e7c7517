// File: fiber/sync.go
//
// Fiber-aware mutex and condition variable. Contended acquisition
// suspends only the calling fiber; plain goroutines fall back to
// channel blocking so the primitives compose with non-fiber code.

package fiber

import "sync"

// Mutex is a mutual exclusion lock usable from fibers. Blocking on a
// contended Mutex is a fiber suspension point.
type Mutex struct {
	mu      sync.Mutex
	held    bool
	waiters []func()
}

// Lock acquires the mutex, suspending the calling fiber while it is
// contended. Waiters are released in FIFO order.
func (m *Mutex) Lock() {
	cur := Current()
	for {
		m.mu.Lock()
		if !m.held {
			m.held = true
			m.mu.Unlock()
			return
		}
		if cur == nil {
			ch := make(chan struct{}, 1)
			m.waiters = append(m.waiters, func() { ch <- struct{}{} })
			m.mu.Unlock()
			<-ch
			continue
		}
		cur.prepareWait()
		m.waiters = append(m.waiters, cur.awaken)
		m.mu.Unlock()
		cur.park()
	}
}

// TryLock acquires the mutex without blocking.
func (m *Mutex) TryLock() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held {
		return false
	}
	m.held = true
	return true
}

// Unlock releases the mutex and wakes the oldest waiter.
func (m *Mutex) Unlock() {
	m.mu.Lock()
	m.held = false
	var next func()
	if len(m.waiters) > 0 {
		next = m.waiters[0]
		m.waiters = m.waiters[1:]
	}
	m.mu.Unlock()
	if next != nil {
		next()
	}
}

// Cond is a fiber-aware condition variable bound to a Mutex.
type Cond struct {
	L *Mutex

	mu      sync.Mutex
	waiters []func()
}

// NewCond returns a condition variable bound to l.
func NewCond(l *Mutex) *Cond { return &Cond{L: l} }

// Wait atomically releases the mutex and suspends until Signal or
// Broadcast. Wakeups may be spurious; callers re-check their predicate
// in a loop, like with sync.Cond.
func (c *Cond) Wait() {
	cur := Current()
	var ch chan struct{}
	c.mu.Lock()
	if cur == nil {
		ch = make(chan struct{}, 1)
		c.waiters = append(c.waiters, func() { ch <- struct{}{} })
	} else {
		cur.prepareWait()
		c.waiters = append(c.waiters, cur.awaken)
	}
	c.mu.Unlock()
	c.L.Unlock()
	if cur == nil {
		<-ch
	} else {
		cur.park()
	}
	c.L.Lock()
}

// Signal wakes one waiter.
func (c *Cond) Signal() {
	c.mu.Lock()
	var next func()
	if len(c.waiters) > 0 {
		next = c.waiters[0]
		c.waiters = c.waiters[1:]
	}
	c.mu.Unlock()
	if next != nil {
		next()
	}
}

// Broadcast wakes all waiters.
func (c *Cond) Broadcast() {
	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.mu.Unlock()
	for _, w := range waiters {
		w()
	}
}
