//go:build linux

package reactor_test

import (
	"net"
	"testing"
	"time"

	"github.com/pmconrad/fc/api"
	"github.com/pmconrad/fc/reactor"
)

func udpPair(t *testing.T) (*net.UDPConn, *net.UDPConn) {
	t.Helper()
	a, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	b, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { a.Close(); b.Close() })
	return a, b
}

func TestPollServiceReadReadiness(t *testing.T) {
	s, err := reactor.NewPollService()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	a, b := udpPair(t)
	fut := s.WaitReadable(b)
	if st := fut.WaitFor(50 * time.Millisecond); st != api.WaitTimeout {
		t.Fatalf("readable before any datagram: %v", st)
	}
	if _, err := a.WriteToUDP([]byte("ping"), b.LocalAddr().(*net.UDPAddr)); err != nil {
		t.Fatal(err)
	}
	if st := fut.WaitFor(time.Second); st != api.WaitReady {
		t.Fatalf("socket did not become readable: %v", st)
	}

	buf := make([]byte, 16)
	n, _, err := b.ReadFromUDP(buf)
	if err != nil {
		t.Fatal(err)
	}
	if string(buf[:n]) != "ping" {
		t.Errorf("got %q", buf[:n])
	}
}

func TestPollServiceWriteReadiness(t *testing.T) {
	s, err := reactor.NewPollService()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	_, b := udpPair(t)
	// an idle UDP socket is immediately writable
	if st := s.WaitWritable(b).WaitFor(time.Second); st != api.WaitReady {
		t.Fatalf("socket not writable: %v", st)
	}
}

func TestPollServiceSingleSlotPerDirection(t *testing.T) {
	s, err := reactor.NewPollService()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	_, b := udpPair(t)
	_ = s.WaitReadable(b)
	defer func() {
		if recover() == nil {
			t.Error("second read wait did not panic")
		}
	}()
	_ = s.WaitReadable(b)
}

func TestPollServiceRemoveFailsOutstanding(t *testing.T) {
	s, err := reactor.NewPollService()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	_, b := udpPair(t)
	fut := s.WaitReadable(b)
	if got := s.Sockets(); len(got) != 1 {
		t.Fatalf("registered sockets = %v", got)
	}
	s.Remove(b)
	_, err = fut.Get()
	if api.KindOf(err) != api.KindIO {
		t.Errorf("got %v, want io error", err)
	}
	if got := s.Sockets(); len(got) != 0 {
		t.Errorf("sockets after remove = %v", got)
	}
}

func TestPollServiceCloseFailsOutstanding(t *testing.T) {
	s, err := reactor.NewPollService()
	if err != nil {
		t.Fatal(err)
	}
	_, b := udpPair(t)
	fut := s.WaitReadable(b)
	s.Close()
	if _, err := fut.Get(); err == nil {
		t.Error("outstanding promise survived Close")
	}
}
