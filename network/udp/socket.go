// File: network/udp/socket.go
// Package udp wraps datagram sockets with fiber-suspending send and
// receive operations driven by the reactor.

package udp

import (
	"net"

	"github.com/pmconrad/fc/api"
	"github.com/pmconrad/fc/fiber"
	"github.com/pmconrad/fc/network/ip"
	"github.com/pmconrad/fc/reactor"
)

// Socket is an IPv4 UDP socket.
type Socket struct {
	conn *net.UDPConn
}

// Listen opens a socket bound to ep. A zero endpoint binds an
// ephemeral port on all interfaces.
func Listen(ep ip.Endpoint) (*Socket, error) {
	b := ep.Addr.Bytes()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: b[:], Port: int(ep.Port)})
	if err != nil {
		return nil, api.IOf(err, "binding UDP socket to %s", ep)
	}
	return &Socket{conn: conn}, nil
}

// LocalEndpoint returns the bound address.
func (s *Socket) LocalEndpoint() ip.Endpoint {
	a := s.conn.LocalAddr().(*net.UDPAddr)
	v4 := a.IP.To4()
	if v4 == nil {
		return ip.Endpoint{Port: uint16(a.Port)}
	}
	return ip.Endpoint{Addr: ip.AddressFromBytes([4]byte(v4)), Port: uint16(a.Port)}
}

// SendTo transmits buf to dest and completes with the byte count. The
// operation record keeps buf alive until completion.
func (s *Socket) SendTo(buf []byte, dest ip.Endpoint) *fiber.Future[int] {
	conn := s.conn
	return reactor.Do("udp_send", func() (int, error) {
		b := dest.Addr.Bytes()
		n, err := conn.WriteToUDP(buf, &net.UDPAddr{IP: b[:], Port: int(dest.Port)})
		if err != nil {
			return 0, reactor.MapIOError(err, "udp send")
		}
		return n, nil
	})
}

// Datagram is the result of a receive: byte count plus peer address.
type Datagram struct {
	N    int
	From ip.Endpoint
}

// ReceiveFrom fills buf with the next datagram and completes with its
// size and sender. Closing the socket fails a pending receive with
// cancelled.
func (s *Socket) ReceiveFrom(buf []byte) *fiber.Future[Datagram] {
	conn := s.conn
	return reactor.Do("udp_receive", func() (Datagram, error) {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			return Datagram{}, reactor.MapIOError(err, "udp receive")
		}
		d := Datagram{N: n}
		if v4 := from.IP.To4(); v4 != nil {
			d.From = ip.Endpoint{Addr: ip.AddressFromBytes([4]byte(v4)), Port: uint16(from.Port)}
		}
		return d, nil
	})
}

// Close releases the socket; pending operations observe cancelled.
func (s *Socket) Close() error {
	return s.conn.Close()
}
