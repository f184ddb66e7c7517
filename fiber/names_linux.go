//go:build linux

// File: fiber/names_linux.go

package fiber

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// setOSThreadName mirrors the worker name onto the OS thread so it
// shows up in ps/top. The kernel caps comm names at 15 bytes.
func setOSThreadName(name string) {
	if len(name) > 15 {
		name = name[:15]
	}
	b, err := unix.BytePtrFromString(name)
	if err != nil {
		return
	}
	_ = unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(b)), 0, 0, 0)
}
