// File: network/ip/wire.go
//
// Wire packing: v4 addresses as a 32-bit big-endian integer, v6
// addresses as 16 raw bytes, endpoints as address followed by a 16-bit
// big-endian port. Address, AddressV6 and all endpoint types implement
// encoding.BinaryMarshaler and BinaryUnmarshaler; AnyAddress does not.

package ip

import (
	"encoding/binary"

	"github.com/pmconrad/fc/api"
)

func (a Address) MarshalBinary() ([]byte, error) {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(a))
	return b, nil
}

func (a *Address) UnmarshalBinary(b []byte) error {
	if len(b) != 4 {
		return api.InvalidArgumentf("IPv4 address needs 4 bytes, got %d", len(b))
	}
	*a = Address(binary.BigEndian.Uint32(b))
	return nil
}

func (a AddressV6) MarshalBinary() ([]byte, error) {
	b := make([]byte, 16)
	copy(b, a[:])
	return b, nil
}

func (a *AddressV6) UnmarshalBinary(b []byte) error {
	if len(b) != 16 {
		return api.InvalidArgumentf("IPv6 address needs 16 bytes, got %d", len(b))
	}
	copy(a[:], b)
	return nil
}

func (e Endpoint) MarshalBinary() ([]byte, error) {
	b := make([]byte, 6)
	binary.BigEndian.PutUint32(b, uint32(e.Addr))
	binary.BigEndian.PutUint16(b[4:], e.Port)
	return b, nil
}

func (e *Endpoint) UnmarshalBinary(b []byte) error {
	if len(b) != 6 {
		return api.InvalidArgumentf("IPv4 endpoint needs 6 bytes, got %d", len(b))
	}
	e.Addr = Address(binary.BigEndian.Uint32(b))
	e.Port = binary.BigEndian.Uint16(b[4:])
	return nil
}

func (e EndpointV6) MarshalBinary() ([]byte, error) {
	b := make([]byte, 18)
	copy(b, e.Addr[:])
	binary.BigEndian.PutUint16(b[16:], e.Port)
	return b, nil
}

func (e *EndpointV6) UnmarshalBinary(b []byte) error {
	if len(b) != 18 {
		return api.InvalidArgumentf("IPv6 endpoint needs 18 bytes, got %d", len(b))
	}
	copy(e.Addr[:], b[:16])
	e.Port = binary.BigEndian.Uint16(b[16:])
	return nil
}

// MarshalBinary packs per family: 6 bytes for v4, 18 for v6.
func (e AnyEndpoint) MarshalBinary() ([]byte, error) {
	if e.Addr.Family() == V6 {
		return EndpointV6{Addr: e.Addr.V6(), Port: e.Port}.MarshalBinary()
	}
	return Endpoint{Addr: e.Addr.V4(), Port: e.Port}.MarshalBinary()
}

// UnmarshalBinary detects the family from the packed length.
func (e *AnyEndpoint) UnmarshalBinary(b []byte) error {
	switch len(b) {
	case 6:
		var ep Endpoint
		if err := ep.UnmarshalBinary(b); err != nil {
			return err
		}
		*e = AnyEndpoint{Addr: AnyFromV4(ep.Addr), Port: ep.Port}
		return nil
	case 18:
		var ep EndpointV6
		if err := ep.UnmarshalBinary(b); err != nil {
			return err
		}
		*e = AnyEndpoint{Addr: AnyFromV6(ep.Addr), Port: ep.Port}
		return nil
	}
	return api.InvalidArgumentf("endpoint needs 6 or 18 bytes, got %d", len(b))
}
