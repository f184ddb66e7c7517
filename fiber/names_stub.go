//go:build !linux

// File: fiber/names_stub.go

package fiber

// setOSThreadName is a no-op where the platform offers no thread
// naming call.
func setOSThreadName(string) {}
