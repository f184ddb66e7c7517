// File: network/ip/address.go
// Package ip provides IPv4/IPv6 address and endpoint value types with
// string round-trips, classification predicates and wire packing.
//
// Parsing and formatting delegate to net/netip, which implements the
// dotted-quad and RFC 5952 forms.

package ip

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/pmconrad/fc/api"
)

// Address is an IPv4 address, stored as its 32-bit big-endian value.
type Address uint32

// ParseAddress parses a dotted-quad IPv4 address.
func ParseAddress(s string) (Address, error) {
	a, err := netip.ParseAddr(s)
	if err != nil || !a.Is4() {
		return 0, api.InvalidArgumentf("error parsing IP address %q", s)
	}
	b := a.As4()
	return AddressFromBytes(b), nil
}

// AddressFromBytes builds an address from network byte order.
func AddressFromBytes(b [4]byte) Address {
	return Address(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
}

// Bytes returns the address in network byte order.
func (a Address) Bytes() [4]byte {
	return [4]byte{byte(a >> 24), byte(a >> 16), byte(a >> 8), byte(a)}
}

func (a Address) String() string {
	return netip.AddrFrom4(a.Bytes()).String()
}

// IsLocalhost reports membership in 127.0.0.0/8.
func (a Address) IsLocalhost() bool {
	return a>>24 == 127
}

// IsPrivate reports whether the address is in one of the ranges
// 10/8, 172.16/12, 192.168/16 or 169.254/16.
func (a Address) IsPrivate() bool {
	switch {
	case a>>24 == 10:
		return true
	case a>>20 == 172<<4|1: // 172.16.0.0 .. 172.31.255.255
		return true
	case a>>16 == 192<<8|168:
		return true
	case a>>16 == 169<<8|254:
		return true
	}
	return false
}

// IsMulticast reports membership in 224.0.0.0/4.
func (a Address) IsMulticast() bool {
	return a>>28 == 0xe
}

// IsPublic reports !private && !multicast.
func (a Address) IsPublic() bool {
	return !a.IsPrivate() && !a.IsMulticast()
}

// Endpoint is an IPv4 address plus port, rendered as "IP:PORT".
type Endpoint struct {
	Addr Address
	Port uint16
}

// ParseEndpoint parses "IP:PORT".
func ParseEndpoint(s string) (Endpoint, error) {
	host, portStr, ok := strings.Cut(s, ":")
	if !ok {
		return Endpoint{}, api.InvalidArgumentf("error parsing endpoint %q", s)
	}
	addr, err := ParseAddress(host)
	if err != nil {
		return Endpoint{}, err
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return Endpoint{}, api.InvalidArgumentf("error parsing endpoint port %q", s)
	}
	return Endpoint{Addr: addr, Port: uint16(port)}, nil
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.Addr, e.Port)
}

// Less orders endpoints by (address, port).
func (e Endpoint) Less(other Endpoint) bool {
	if e.Addr != other.Addr {
		return e.Addr < other.Addr
	}
	return e.Port < other.Port
}
