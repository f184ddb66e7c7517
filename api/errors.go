// File: api/errors.go
//
// Structured error kinds shared across the fc runtime. Failures raised by
// the runtime itself are *Error values so callers can branch on Kind
// without string matching; errors returned by user functions pass
// through futures unchanged.

package api

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind int

const (
	KindUnknown Kind = iota
	// KindEOF marks end-of-input signalled by the peer or stream.
	KindEOF
	// KindIO covers all other I/O failures (refused, reset, closed...).
	KindIO
	// KindTimeout marks a deadline that expired before completion.
	KindTimeout
	// KindCancelled marks an operation whose underlying resource was
	// closed locally while the operation was pending.
	KindCancelled
	// KindInvalidArgument marks unparseable or unsupported input.
	KindInvalidArgument
	// KindProgramming marks API misuse (double init, one-shot violation,
	// unknown migration target). These are raised via panic, not returned.
	KindProgramming
	// KindRPC marks a remote call that failed at the protocol layer.
	KindRPC
)

func (k Kind) String() string {
	switch k {
	case KindEOF:
		return "eof"
	case KindIO:
		return "io"
	case KindTimeout:
		return "timeout"
	case KindCancelled:
		return "cancelled"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindProgramming:
		return "programming_error"
	case KindRPC:
		return "rpc_error"
	}
	return "unknown"
}

// Error carries a kind, a message and an optional underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two *Error values by kind, so errors.Is(err, api.ErrEOF) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is. Never returned directly.
var (
	ErrEOF             = &Error{Kind: KindEOF, Message: "end of stream"}
	ErrTimeout         = &Error{Kind: KindTimeout, Message: "operation timed out"}
	ErrCancelled       = &Error{Kind: KindCancelled, Message: "operation cancelled"}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument, Message: "invalid argument"}
)

// EOFf builds an end-of-stream error wrapping cause.
func EOFf(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindEOF, Message: fmt.Sprintf(format, args...), Err: cause}
}

// IOf builds a generic I/O error wrapping cause.
func IOf(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindIO, Message: fmt.Sprintf(format, args...), Err: cause}
}

// Timeoutf builds a timeout error.
func Timeoutf(format string, args ...any) *Error {
	return &Error{Kind: KindTimeout, Message: fmt.Sprintf(format, args...)}
}

// Cancelledf builds a cancellation error wrapping cause.
func Cancelledf(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindCancelled, Message: fmt.Sprintf(format, args...), Err: cause}
}

// InvalidArgumentf builds an invalid-argument error.
func InvalidArgumentf(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// RPCf builds a protocol-layer RPC error.
func RPCf(format string, args ...any) *Error {
	return &Error{Kind: KindRPC, Message: fmt.Sprintf(format, args...)}
}

// Programmingf builds a programming error. Call sites that detect API
// misuse pass the result to panic; recovering from it is not supported.
func Programmingf(format string, args ...any) *Error {
	return &Error{Kind: KindProgramming, Message: fmt.Sprintf(format, args...)}
}

// Assert panics with a programming error unless cond holds.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(Programmingf(format, args...))
	}
}

// KindOf extracts the kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
