// File: reactor/resolve.go

package reactor

import (
	"context"
	"net"

	"github.com/pmconrad/fc/api"
	"github.com/pmconrad/fc/fiber"
	"github.com/pmconrad/fc/network/ip"
)

// Resolve looks up host and returns its IPv4 endpoints with the given
// port. IPv6 results are skipped; use Resolve46 for both families.
func Resolve(host string, port uint16) *fiber.Future[[]ip.Endpoint] {
	p := fiber.NewPromise[[]ip.Endpoint]()
	return submitOp(Default(), "resolve", nil, p, func() {
		addrs, err := lookup(host)
		if err != nil {
			p.Fail(err)
			return
		}
		var eps []ip.Endpoint
		for _, a := range addrs {
			if v4 := a.IP.To4(); v4 != nil {
				eps = append(eps, ip.Endpoint{Addr: ip.AddressFromBytes([4]byte(v4)), Port: port})
			}
		}
		p.Set(eps)
	})
}

// Resolve46 looks up host and returns endpoints of both families.
func Resolve46(host string, port uint16) *fiber.Future[[]ip.AnyEndpoint] {
	p := fiber.NewPromise[[]ip.AnyEndpoint]()
	return submitOp(Default(), "resolve", nil, p, func() {
		addrs, err := lookup(host)
		if err != nil {
			p.Fail(err)
			return
		}
		var eps []ip.AnyEndpoint
		for _, a := range addrs {
			if v4 := a.IP.To4(); v4 != nil {
				eps = append(eps, ip.AnyEndpoint{
					Addr: ip.AnyFromV4(ip.AddressFromBytes([4]byte(v4))),
					Port: port,
				})
			} else if v6 := a.IP.To16(); v6 != nil {
				eps = append(eps, ip.AnyEndpoint{
					Addr: ip.AnyFromV6(ip.AddressV6([16]byte(v6))),
					Port: port,
				})
			}
		}
		p.Set(eps)
	})
}

func lookup(host string) ([]net.IPAddr, error) {
	addrs, err := net.DefaultResolver.LookupIPAddr(context.Background(), host)
	if err != nil {
		return nil, api.IOf(err, "resolving %q", host)
	}
	return addrs, nil
}
