// Package headerview parses link-framed IPv4 packets into a read-only
// structured view, standing in for the IP/transport stacks a real egress
// node would own (the Header Parser collaborator).
package headerview

import (
	"encoding/binary"
	"errors"
	"net"

	"golang.org/x/net/ipv4"
)

// Framing describes the link-layer header a packet is wrapped in before
// the IPv4 datagram. The simulator this spec is drawn from used a 2-byte
// PPP framing; the core treats framing as an opaque, configurable prefix.
type Framing int

const (
	// FramingNone is a bare IPv4 datagram with no link header.
	FramingNone Framing = iota
	// FramingPPP strips a 2-byte PPP protocol-field header.
	FramingPPP
)

func (f Framing) headerLen() int {
	switch f {
	case FramingPPP:
		return 2
	default:
		return 0
	}
}

// Protocol numbers this view populates L4 ports for.
const (
	ProtoTCP = 6
	ProtoUDP = 17
)

var (
	// ErrFramingMissing is returned when the buffer is shorter than the
	// declared link-layer framing.
	ErrFramingMissing = errors.New("headerview: framing header missing")
	// ErrIPHeaderMissing is returned when the IPv4 header cannot be parsed.
	ErrIPHeaderMissing = errors.New("headerview: ip header missing or malformed")
	// ErrL4HeaderMissing is returned when proto is TCP/UDP but the 4-byte
	// port prefix is truncated.
	ErrL4HeaderMissing = errors.New("headerview: l4 header missing or malformed")
)

// View is a read-only projection of a packet's IPv4 and L4 header fields.
// Port fields are only meaningful when HasPorts is true.
type View struct {
	DstIP    net.IP
	SrcIP    net.IP
	Proto    uint8
	SrcPort  uint16
	DstPort  uint16
	HasPorts bool
}

// Parse strips framing, then parses the IPv4 header and, for TCP/UDP,
// the leading 4-byte port prefix. It never mutates buf.
func Parse(buf []byte, framing Framing) (View, error) {
	hdrLen := framing.headerLen()
	if len(buf) < hdrLen {
		return View{}, ErrFramingMissing
	}
	payload := buf[hdrLen:]

	ipHdr, err := ipv4.ParseHeader(payload)
	if err != nil {
		return View{}, ErrIPHeaderMissing
	}

	view := View{
		DstIP: ipHdr.Dst,
		SrcIP: ipHdr.Src,
		Proto: uint8(ipHdr.Protocol),
	}

	if view.Proto != ProtoTCP && view.Proto != ProtoUDP {
		return view, nil
	}

	l4 := payload[ipHdr.Len:]
	if len(l4) < 4 {
		return View{}, ErrL4HeaderMissing
	}
	view.SrcPort = binary.BigEndian.Uint16(l4[0:2])
	view.DstPort = binary.BigEndian.Uint16(l4[2:4])
	view.HasPorts = true
	return view, nil
}
