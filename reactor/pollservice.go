// File: reactor/pollservice.go
//
// Readiness poll service for datagram-style sockets. A dedicated
// service thread hosts an ordered poll over registered socket ids. Per
// socket at most one read promise and one write promise may be
// outstanding; when the poller reports readiness the matching promise
// is completed and its slot cleared. Removing a socket fails any
// outstanding promises with a generic I/O error.

package reactor

import (
	"sort"
	"sync"
	"syscall"

	"github.com/pmconrad/fc/api"
	"github.com/pmconrad/fc/fiber"
)

type pollEvent struct {
	fd    int32
	read  bool
	write bool
}

// poller is the platform backend (epoll on Linux).
type poller interface {
	add(fd int32) error
	mod(fd int32, read, write bool) error
	del(fd int32) error
	// wait blocks until events arrive or wake is called.
	wait() ([]pollEvent, error)
	wake() error
	close() error
}

type pollEntry struct {
	read  *fiber.Promise[struct{}]
	write *fiber.Promise[struct{}]
}

// PollService multiplexes readiness waits for many sockets over one
// service thread.
type PollService struct {
	mu      sync.Mutex
	entries map[int32]*pollEntry
	backend poller
	closing bool
	done    chan struct{}
}

// NewPollService starts the service thread. On platforms without a
// poll backend an io error is returned.
func NewPollService() (*PollService, error) {
	backend, err := newPoller()
	if err != nil {
		return nil, err
	}
	s := &PollService{
		entries: make(map[int32]*pollEntry),
		backend: backend,
		done:    make(chan struct{}),
	}
	go s.serve()
	return s, nil
}

func (s *PollService) serve() {
	defer close(s.done)
	for {
		events, err := s.backend.wait()
		s.mu.Lock()
		if s.closing {
			s.mu.Unlock()
			return
		}
		if err != nil {
			s.mu.Unlock()
			logger.Error().Err(err).Msg("poll service wait failed")
			continue
		}
		for _, ev := range events {
			e := s.entries[ev.fd]
			if e == nil {
				continue
			}
			if ev.read && e.read != nil {
				e.read.Set(struct{}{})
				e.read = nil
			}
			if ev.write && e.write != nil {
				e.write.Set(struct{}{})
				e.write = nil
			}
			_ = s.backend.mod(ev.fd, e.read != nil, e.write != nil)
			pollWakeups.Inc()
		}
		s.mu.Unlock()
	}
}

func rawFD(conn syscall.Conn) (int32, error) {
	rc, err := conn.SyscallConn()
	if err != nil {
		return 0, api.IOf(err, "socket has no raw descriptor")
	}
	var fd int32
	if err := rc.Control(func(f uintptr) { fd = int32(f) }); err != nil {
		return 0, api.IOf(err, "socket descriptor control failed")
	}
	return fd, nil
}

// WaitReadable returns a future completed when the socket becomes
// readable. A second pending read wait on the same socket is a
// programming error.
func (s *PollService) WaitReadable(conn syscall.Conn) *fiber.Future[struct{}] {
	return s.wait(conn, true)
}

// WaitWritable is the write-direction counterpart of WaitReadable.
func (s *PollService) WaitWritable(conn syscall.Conn) *fiber.Future[struct{}] {
	return s.wait(conn, false)
}

func (s *PollService) wait(conn syscall.Conn, read bool) *fiber.Future[struct{}] {
	p := fiber.NewPromise[struct{}]()
	fd, err := rawFD(conn)
	if err != nil {
		p.Fail(err)
		return p.Future()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		p.Fail(api.Cancelledf(nil, "poll service is shut down"))
		return p.Future()
	}
	e := s.entries[fd]
	if e == nil {
		if err := s.backend.add(fd); err != nil {
			p.Fail(api.IOf(err, "registering socket %d", fd))
			return p.Future()
		}
		e = &pollEntry{}
		s.entries[fd] = e
	}
	if read {
		api.Assert(e.read == nil, "read promise already registered for socket %d", fd)
		e.read = p
	} else {
		api.Assert(e.write == nil, "write promise already registered for socket %d", fd)
		e.write = p
	}
	if err := s.backend.mod(fd, e.read != nil, e.write != nil); err != nil {
		p = s.clearSlot(e, read)
		p.Fail(api.IOf(err, "arming socket %d", fd))
		return p.Future()
	}
	_ = s.backend.wake()
	return p.Future()
}

func (s *PollService) clearSlot(e *pollEntry, read bool) *fiber.Promise[struct{}] {
	if read {
		p := e.read
		e.read = nil
		return p
	}
	p := e.write
	e.write = nil
	return p
}

// Remove deregisters a socket, failing its outstanding promises.
// Callers invoke it when closing the socket.
func (s *PollService) Remove(conn syscall.Conn) {
	fd, err := rawFD(conn)
	if err != nil {
		return
	}
	s.mu.Lock()
	e := s.entries[fd]
	delete(s.entries, fd)
	if e != nil {
		_ = s.backend.del(fd)
	}
	s.mu.Unlock()
	failEntry(e)
}

// Sockets returns the registered socket ids in ascending order.
func (s *PollService) Sockets() []int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int32, 0, len(s.entries))
	for fd := range s.entries {
		ids = append(ids, fd)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Close stops the service thread and fails all outstanding promises.
func (s *PollService) Close() {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closing = true
	entries := make([]*pollEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.entries = map[int32]*pollEntry{}
	s.mu.Unlock()
	_ = s.backend.wake()
	<-s.done
	_ = s.backend.close()
	for _, e := range entries {
		failEntry(e)
	}
}

func failEntry(e *pollEntry) {
	if e == nil {
		return
	}
	if e.read != nil {
		e.read.Fail(api.IOf(nil, "socket removed from poll service"))
	}
	if e.write != nil {
		e.write.Fail(api.IOf(nil, "socket removed from poll service"))
	}
}
