package udp_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pmconrad/fc/api"
	"github.com/pmconrad/fc/fiber"
	"github.com/pmconrad/fc/network/ip"
	"github.com/pmconrad/fc/network/udp"
)

func TestUDPRoundTrip(t *testing.T) {
	w := fiber.NewWorker("")
	defer w.Close()

	localhost, err := ip.ParseAddress("127.0.0.1")
	require.NoError(t, err)

	a, err := udp.Listen(ip.Endpoint{Addr: localhost})
	require.NoError(t, err)
	defer a.Close()
	b, err := udp.Listen(ip.Endpoint{Addr: localhost})
	require.NoError(t, err)
	defer b.Close()

	_, err = fiber.Spawn(func() (struct{}, error) {
		buf := make([]byte, 64)
		recv := b.ReceiveFrom(buf)

		n, err := a.SendTo([]byte("datagram"), b.LocalEndpoint()).Get()
		if err != nil {
			return struct{}{}, err
		}
		require.Equal(t, len("datagram"), n)

		d, err := recv.Get()
		if err != nil {
			return struct{}{}, err
		}
		require.Equal(t, "datagram", string(buf[:d.N]))
		require.Equal(t, a.LocalEndpoint(), d.From)
		return struct{}{}, nil
	}, fiber.OnWorker(w.ID())).Get()
	require.NoError(t, err)
}

func TestUDPCloseCancelsReceive(t *testing.T) {
	localhost, err := ip.ParseAddress("127.0.0.1")
	require.NoError(t, err)
	s, err := udp.Listen(ip.Endpoint{Addr: localhost})
	require.NoError(t, err)

	recv := s.ReceiveFrom(make([]byte, 16))
	require.NoError(t, s.Close())
	_, err = recv.Get()
	require.Equal(t, api.KindCancelled, api.KindOf(err))
}
