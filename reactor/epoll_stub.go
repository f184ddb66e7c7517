//go:build !linux

// File: reactor/epoll_stub.go

package reactor

import "github.com/pmconrad/fc/api"

// newPoller has no backend on this platform.
func newPoller() (poller, error) {
	return nil, api.IOf(nil, "poll service is not supported on this platform")
}
