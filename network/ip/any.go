// File: network/ip/any.go
//
// Family-agnostic address and endpoint covering IPv4 and IPv6.

package ip

import (
	"fmt"
	"strings"

	"github.com/pmconrad/fc/api"
)

// Family tags the concrete type held by an AnyAddress.
type Family int

const (
	V4 Family = iota
	V6
)

func (f Family) String() string {
	if f == V6 {
		return "ipv6"
	}
	return "ipv4"
}

// AnyAddress holds either an IPv4 or an IPv6 address. The zero value is
// the IPv4 "0.0.0.0".
type AnyAddress struct {
	family Family
	v4     Address
	v6     AddressV6
}

// AnyFromV4 wraps an IPv4 address.
func AnyFromV4(a Address) AnyAddress { return AnyAddress{family: V4, v4: a} }

// AnyFromV6 wraps an IPv6 address.
func AnyFromV6(a AddressV6) AnyAddress { return AnyAddress{family: V6, v6: a} }

// ParseAnyAddress parses either family; anything containing ':' is
// treated as IPv6.
func ParseAnyAddress(s string) (AnyAddress, error) {
	if strings.Contains(s, ":") {
		a, err := ParseAddressV6(s)
		if err != nil {
			return AnyAddress{}, err
		}
		return AnyFromV6(a), nil
	}
	a, err := ParseAddress(s)
	if err != nil {
		return AnyAddress{}, err
	}
	return AnyFromV4(a), nil
}

// Family returns the concrete family.
func (a AnyAddress) Family() Family { return a.family }

// V4 returns the IPv4 form. Calling it on an IPv6 address is a
// programming error.
func (a AnyAddress) V4() Address {
	api.Assert(a.family == V4, "not an IPv4 address: %s", a)
	return a.v4
}

// V6 returns the IPv6 form. Calling it on an IPv4 address is a
// programming error.
func (a AnyAddress) V6() AddressV6 {
	api.Assert(a.family == V6, "not an IPv6 address: %s", a)
	return a.v6
}

func (a AnyAddress) String() string {
	if a.family == V6 {
		return a.v6.String()
	}
	return a.v4.String()
}

// Equal compares across families: a v4 address equals its mapped-v4
// IPv6 form.
func (a AnyAddress) Equal(b AnyAddress) bool {
	switch {
	case a.family == V4 && b.family == V4:
		return a.v4 == b.v4
	case a.family == V6 && b.family == V6:
		return a.v6 == b.v6
	case a.family == V4:
		return b.v6.IsMappedV4() && b.v6.MappedV4() == a.v4
	default:
		return a.v6.IsMappedV4() && a.v6.MappedV4() == b.v4
	}
}

// Less orders addresses by (family, address) with v4 < v6.
func (a AnyAddress) Less(b AnyAddress) bool {
	if a.family != b.family {
		return a.family < b.family
	}
	if a.family == V4 {
		return a.v4 < b.v4
	}
	return a.v6.Less(b.v6)
}

func (a AnyAddress) IsLocalhost() bool {
	if a.family == V6 {
		return a.v6.IsLocalhost()
	}
	return a.v4.IsLocalhost()
}

func (a AnyAddress) IsPrivate() bool {
	if a.family == V6 {
		return a.v6.IsPrivate()
	}
	return a.v4.IsPrivate()
}

func (a AnyAddress) IsMulticast() bool {
	if a.family == V6 {
		return a.v6.IsMulticast()
	}
	return a.v4.IsMulticast()
}

func (a AnyAddress) IsPublic() bool {
	if a.family == V6 {
		return a.v6.IsPublic()
	}
	return a.v4.IsPublic()
}

// AnyEndpoint is a family-agnostic endpoint. IPv6 forms render in
// brackets, IPv4 forms do not.
type AnyEndpoint struct {
	Addr AnyAddress
	Port uint16
}

// ParseAnyEndpoint parses "IP:PORT" or "[IP6]:PORT".
func ParseAnyEndpoint(s string) (AnyEndpoint, error) {
	if strings.HasPrefix(s, "[") {
		ep, err := ParseEndpointV6(s)
		if err != nil {
			return AnyEndpoint{}, err
		}
		return AnyEndpoint{Addr: AnyFromV6(ep.Addr), Port: ep.Port}, nil
	}
	ep, err := ParseEndpoint(s)
	if err != nil {
		return AnyEndpoint{}, err
	}
	return AnyEndpoint{Addr: AnyFromV4(ep.Addr), Port: ep.Port}, nil
}

func (e AnyEndpoint) String() string {
	if e.Addr.Family() == V6 {
		return fmt.Sprintf("[%s]:%d", e.Addr, e.Port)
	}
	return fmt.Sprintf("%s:%d", e.Addr, e.Port)
}

// Equal compares endpoints including cross-family mapped-v4 addresses.
func (e AnyEndpoint) Equal(other AnyEndpoint) bool {
	return e.Port == other.Port && e.Addr.Equal(other.Addr)
}

// Less orders endpoints by (family, address, port) with v4 < v6,
// comparing raw representations. Unlike Equal it does not identify a
// v4 address with its mapped-v4 form; doing so would break the strict
// weak ordering.
func (e AnyEndpoint) Less(other AnyEndpoint) bool {
	if e.Addr.family != other.Addr.family {
		return e.Addr.family < other.Addr.family
	}
	if e.Addr.family == V4 {
		if e.Addr.v4 != other.Addr.v4 {
			return e.Addr.v4 < other.Addr.v4
		}
	} else if e.Addr.v6 != other.Addr.v6 {
		return e.Addr.v6.Less(other.Addr.v6)
	}
	return e.Port < other.Port
}
