package headerview_test

import (
	"net"
	"testing"

	"github.com/nodepath81/diffservd/internal/headerview"
	"github.com/nodepath81/diffservd/internal/simulate"
)

func TestParseTCP(t *testing.T) {
	buf := simulate.Build(simulate.Packet{
		SrcIP:   mustIP("10.0.0.1"),
		DstIP:   mustIP("10.0.0.2"),
		Proto:   headerview.ProtoTCP,
		SrcPort: 1111,
		DstPort: 80,
	})

	view, err := headerview.Parse(buf, headerview.FramingPPP)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !view.HasPorts {
		t.Fatal("HasPorts = false, want true for TCP")
	}
	if view.SrcPort != 1111 || view.DstPort != 80 {
		t.Fatalf("ports = %d/%d, want 1111/80", view.SrcPort, view.DstPort)
	}
	if view.Proto != headerview.ProtoTCP {
		t.Fatalf("proto = %d, want %d", view.Proto, headerview.ProtoTCP)
	}
	if !view.SrcIP.Equal(mustIP("10.0.0.1")) || !view.DstIP.Equal(mustIP("10.0.0.2")) {
		t.Fatalf("addrs = %s/%s, want 10.0.0.1/10.0.0.2", view.SrcIP, view.DstIP)
	}
}

func TestParseNonPortProtocol(t *testing.T) {
	buf := simulate.Build(simulate.Packet{
		SrcIP: mustIP("10.0.0.1"),
		DstIP: mustIP("10.0.0.2"),
		Proto: 1, // ICMP
	})
	view, err := headerview.Parse(buf, headerview.FramingPPP)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if view.HasPorts {
		t.Fatal("HasPorts = true, want false for non-TCP/UDP")
	}
}

func TestParseFramingMissing(t *testing.T) {
	if _, err := headerview.Parse([]byte{0x00}, headerview.FramingPPP); err != headerview.ErrFramingMissing {
		t.Fatalf("err = %v, want ErrFramingMissing", err)
	}
}

func TestParseIPHeaderMissing(t *testing.T) {
	buf := []byte{0x00, 0x21, 0xff, 0xff, 0xff}
	if _, err := headerview.Parse(buf, headerview.FramingPPP); err != headerview.ErrIPHeaderMissing {
		t.Fatalf("err = %v, want ErrIPHeaderMissing", err)
	}
}

func TestParseL4HeaderMissing(t *testing.T) {
	buf := simulate.Build(simulate.Packet{
		SrcIP:   mustIP("10.0.0.1"),
		DstIP:   mustIP("10.0.0.2"),
		Proto:   headerview.ProtoUDP,
		SrcPort: 53,
		DstPort: 53,
	})
	truncated := buf[:len(buf)-4]
	if _, err := headerview.Parse(truncated, headerview.FramingPPP); err != headerview.ErrL4HeaderMissing {
		t.Fatalf("err = %v, want ErrL4HeaderMissing", err)
	}
}

func mustIP(s string) net.IP {
	ip := net.ParseIP(s)
	if ip == nil {
		panic("bad test IP: " + s)
	}
	return ip
}
