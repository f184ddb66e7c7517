// File: network/ip/address6.go

package ip

import (
	"bytes"
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/pmconrad/fc/api"
)

var v4MappedPrefix = [12]byte{10: 0xff, 11: 0xff}

// AddressV6 is an IPv6 address as 16 raw bytes in network order. The
// zero value is "::".
type AddressV6 [16]byte

// ParseAddressV6 parses an RFC 5952 / RFC 4291 textual IPv6 address.
func ParseAddressV6(s string) (AddressV6, error) {
	a, err := netip.ParseAddr(s)
	if err != nil || !a.Is6() || a.Zone() != "" {
		return AddressV6{}, api.InvalidArgumentf("error parsing IP address %q", s)
	}
	return AddressV6(a.As16()), nil
}

// V6FromV4 returns the IPv4-mapped form ::ffff:a.b.c.d.
func V6FromV4(a Address) AddressV6 {
	var v6 AddressV6
	b := a.Bytes()
	copy(v6[:12], v4MappedPrefix[:])
	copy(v6[12:], b[:])
	return v6
}

func (a AddressV6) String() string {
	return netip.AddrFrom16(a).String()
}

// IsMappedV4 reports membership in ::ffff:0:0/96.
func (a AddressV6) IsMappedV4() bool {
	return bytes.Equal(a[:12], v4MappedPrefix[:])
}

// MappedV4 extracts the embedded IPv4 address. Calling it on a
// non-mapped address is a programming error.
func (a AddressV6) MappedV4() Address {
	api.Assert(a.IsMappedV4(), "not a mapped-v4 address: %s", a)
	return AddressFromBytes([4]byte(a[12:]))
}

// IsLocalhost reports ::1 or a mapped-v4 loopback.
func (a AddressV6) IsLocalhost() bool {
	if a == (AddressV6{15: 1}) {
		return true
	}
	return a.IsMappedV4() && a.MappedV4().IsLocalhost()
}

// IsPrivate reports whether the address is non-routable: localhost,
// fc00::/7, fe80::/10, a mapped-v4 private address, or a 6to4 form of a
// v4 private address.
func (a AddressV6) IsPrivate() bool {
	if a[0] == 0x20 && a[1] == 0x02 { // 6to4
		return AddressFromBytes([4]byte(a[2:6])).IsPrivate()
	}
	return a.IsLocalhost() ||
		(a.IsMappedV4() && a.MappedV4().IsPrivate()) ||
		a[0]&0xfe == 0xfc ||
		(a[0] == 0xfe && a[1]&0xc0 == 0x80)
}

// IsMulticast reports membership in ff00::/8.
func (a AddressV6) IsMulticast() bool {
	return a[0] == 0xff
}

// IsPublic reports !private and membership in the global unicast block
// 2000::/3.
func (a AddressV6) IsPublic() bool {
	return !a.IsPrivate() && a[0]&0xe0 == 0x20
}

// Less orders addresses bytewise.
func (a AddressV6) Less(other AddressV6) bool {
	return bytes.Compare(a[:], other[:]) < 0
}

// EndpointV6 is an IPv6 address plus port, rendered as "[IP6]:PORT".
type EndpointV6 struct {
	Addr AddressV6
	Port uint16
}

// ParseEndpointV6 parses "[IP6]:PORT".
func ParseEndpointV6(s string) (EndpointV6, error) {
	if !strings.HasPrefix(s, "[") {
		return EndpointV6{}, api.InvalidArgumentf("error parsing endpoint %q", s)
	}
	host, portStr, ok := strings.Cut(s[1:], "]:")
	if !ok {
		return EndpointV6{}, api.InvalidArgumentf("error parsing endpoint %q", s)
	}
	addr, err := ParseAddressV6(host)
	if err != nil {
		return EndpointV6{}, err
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return EndpointV6{}, api.InvalidArgumentf("error parsing endpoint port %q", s)
	}
	return EndpointV6{Addr: addr, Port: uint16(port)}, nil
}

func (e EndpointV6) String() string {
	return fmt.Sprintf("[%s]:%d", e.Addr, e.Port)
}

// Less orders endpoints by (address, port).
func (e EndpointV6) Less(other EndpointV6) bool {
	if e.Addr != other.Addr {
		return e.Addr.Less(other.Addr)
	}
	return e.Port < other.Port
}
