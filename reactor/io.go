// File: reactor/io.go
//
// Future-returning I/O primitives. Each call allocates an operation
// record holding the buffer share and the completion promise; the
// reactor resolves the promise with the byte count or with an error
// tagged eof, cancelled, timeout or io.

package reactor

import (
	"errors"
	"io"
	"net"

	"github.com/pmconrad/fc/api"
	"github.com/pmconrad/fc/fiber"
)

// Do runs f on a reactor thread and completes the returned future with
// its result. Socket wrappers build their suspending operations on it.
func Do[T any](kind string, f func() (T, error)) *fiber.Future[T] {
	p := fiber.NewPromise[T]()
	return submitOp(Default(), kind, nil, p, func() {
		v, err := f()
		if err != nil {
			p.Fail(err)
			return
		}
		p.Set(v)
	})
}

// MapIOError classifies an error from the net/io layer into the
// structured eof / cancelled / timeout / io kinds.
func MapIOError(err error, what string) error {
	return mapIOError(err, what)
}

// mapIOError classifies an error from the net/io layer.
func mapIOError(err error, what string) error {
	var ne net.Error
	switch {
	case errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF):
		return api.EOFf(err, "%s", what)
	case errors.Is(err, net.ErrClosed):
		return api.Cancelledf(err, "%s", what)
	case errors.As(err, &ne) && ne.Timeout():
		return api.Timeoutf("%s: %v", what, err)
	default:
		return api.IOf(err, "%s", what)
	}
}

// AsyncRead reads until buf is full and completes with len(buf).
// Encountering end-of-stream before that fails with eof.
func AsyncRead(r io.Reader, buf []byte) *fiber.Future[int] {
	return asyncRead(Default(), r, buf)
}

func asyncRead(rc *Reactor, r io.Reader, buf []byte) *fiber.Future[int] {
	p := fiber.NewPromise[int]()
	return submitOp(rc, "read", buf, p, func() {
		n, err := io.ReadFull(r, buf)
		if err != nil {
			p.Fail(mapIOError(err, "read"))
			return
		}
		p.Set(n)
	})
}

// ReadSome completes after at least one byte was read.
func ReadSome(r io.Reader, buf []byte) *fiber.Future[int] {
	p := fiber.NewPromise[int]()
	return submitOp(Default(), "read_some", buf, p, func() {
		n, err := r.Read(buf)
		if n == 0 && err != nil {
			p.Fail(mapIOError(err, "read"))
			return
		}
		p.Set(n)
	})
}

// AsyncWrite writes all of buf and completes with len(buf).
func AsyncWrite(w io.Writer, buf []byte) *fiber.Future[int] {
	p := fiber.NewPromise[int]()
	return submitOp(Default(), "write", buf, p, func() {
		n, err := w.Write(buf)
		if err != nil {
			p.Fail(mapIOError(err, "write"))
			return
		}
		p.Set(n)
	})
}

// WriteSome writes what the stream accepts in one call.
func WriteSome(w io.Writer, buf []byte) *fiber.Future[int] {
	// io.Writer has no partial-write contract; full write doubles as
	// the "some" variant.
	return AsyncWrite(w, buf)
}

// Accept waits for the next inbound connection. Closing the listener
// while the accept is pending deterministically fails the future with
// cancelled; there is no is-listening pre-check to race against.
func Accept(l net.Listener) *fiber.Future[net.Conn] {
	p := fiber.NewPromise[net.Conn]()
	return submitOp(Default(), "accept", nil, p, func() {
		c, err := l.Accept()
		if err != nil {
			p.Fail(mapIOError(err, "accept"))
			return
		}
		p.Set(c)
	})
}

// Connect dials addr and completes with the connected socket.
func Connect(network, addr string) *fiber.Future[net.Conn] {
	p := fiber.NewPromise[net.Conn]()
	return submitOp(Default(), "connect", nil, p, func() {
		c, err := net.Dial(network, addr)
		if err != nil {
			p.Fail(mapIOError(err, "connect "+addr))
			return
		}
		setNonBlockingOnce(c)
		p.Set(c)
	})
}

// setNonBlockingOnce is a no-op for Go's net package, whose sockets are
// already managed non-blocking by the runtime poller. Kept as the
// single seam for stream types that need explicit setup.
func setNonBlockingOnce(net.Conn) {}
