//go:build linux

// File: reactor/epoll_linux.go
//
// Linux epoll backend for the poll service. A wakeup eventfd is
// registered alongside the sockets so interest changes interrupt a
// blocked wait.

package reactor

import (
	"golang.org/x/sys/unix"
)

type epollPoller struct {
	epfd   int
	wakeFD int
}

func newPoller() (poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	wakeFD, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, err
	}
	p := &epollPoller{epfd: epfd, wakeFD: wakeFD}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakeFD)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakeFD, &ev); err != nil {
		p.close()
		return nil, err
	}
	return p, nil
}

func (p *epollPoller) add(fd int32) error {
	ev := unix.EpollEvent{Fd: fd}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, int(fd), &ev)
}

func (p *epollPoller) mod(fd int32, read, write bool) error {
	var events uint32
	if read {
		events |= unix.EPOLLIN
	}
	if write {
		events |= unix.EPOLLOUT
	}
	ev := unix.EpollEvent{Events: events, Fd: fd}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, int(fd), &ev)
}

func (p *epollPoller) del(fd int32) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, int(fd), nil)
}

func (p *epollPoller) wait() ([]pollEvent, error) {
	var events [64]unix.EpollEvent
	for {
		n, err := unix.EpollWait(p.epfd, events[:], -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, err
		}
		out := make([]pollEvent, 0, n)
		for i := 0; i < n; i++ {
			ev := events[i]
			if int(ev.Fd) == p.wakeFD {
				p.drainWake()
				continue
			}
			out = append(out, pollEvent{
				fd:    ev.Fd,
				read:  ev.Events&(unix.EPOLLIN|unix.EPOLLERR|unix.EPOLLHUP) != 0,
				write: ev.Events&(unix.EPOLLOUT|unix.EPOLLERR|unix.EPOLLHUP) != 0,
			})
		}
		return out, nil
	}
}

func (p *epollPoller) drainWake() {
	var buf [8]byte
	for {
		if _, err := unix.Read(p.wakeFD, buf[:]); err != nil {
			return
		}
	}
}

func (p *epollPoller) wake() error {
	var one = [8]byte{0: 1}
	_, err := unix.Write(p.wakeFD, one[:])
	return err
}

func (p *epollPoller) close() error {
	unix.Close(p.wakeFD)
	return unix.Close(p.epfd)
}
