// Package simulate builds synthetic PPP-framed IPv4 packets, standing in
// for the external Host Runtime and Header Parser collaborators the core
// scheduler never talks to directly. It exists for tests and for the CLI's
// demo traffic generator.
package simulate

import (
	"encoding/binary"
	"net"

	"golang.org/x/net/ipv4"

	"github.com/nodepath81/diffservd/internal/headerview"
)

// Packet describes one synthetic packet to encode.
type Packet struct {
	SrcIP    net.IP
	DstIP    net.IP
	Proto    uint8
	SrcPort  uint16
	DstPort  uint16
	PadBytes int // payload padding beyond the IPv4/L4 headers
}

// Build encodes p into a 2-byte-PPP-framed IPv4 datagram that
// headerview.Parse(..., headerview.FramingPPP) can read back.
func Build(p Packet) []byte {
	l4Len := 0
	if p.Proto == headerview.ProtoTCP || p.Proto == headerview.ProtoUDP {
		l4Len = 4
	}
	totalLen := ipv4.HeaderLen + l4Len + p.PadBytes

	hdr := &ipv4.Header{
		Version:  ipv4.Version,
		Len:      ipv4.HeaderLen,
		TotalLen: totalLen,
		TTL:      64,
		Protocol: int(p.Proto),
		Src:      p.SrcIP.To4(),
		Dst:      p.DstIP.To4(),
	}
	ipBytes, err := hdr.Marshal()
	if err != nil {
		panic(err)
	}

	buf := make([]byte, 2, 2+len(ipBytes)+l4Len+p.PadBytes)
	// 2-byte PPP framing; protocol field value is not interpreted by the core.
	buf[0], buf[1] = 0x00, 0x21
	buf = append(buf, ipBytes...)

	if l4Len > 0 {
		l4 := make([]byte, 4)
		binary.BigEndian.PutUint16(l4[0:2], p.SrcPort)
		binary.BigEndian.PutUint16(l4[2:4], p.DstPort)
		buf = append(buf, l4...)
	}
	if p.PadBytes > 0 {
		buf = append(buf, make([]byte, p.PadBytes)...)
	}
	return buf
}

// Size returns the encoded length of p without allocating, useful when a
// caller only needs the byte count DRR's deficit counters are denominated
// in (e.g. the demo traffic generator).
func Size(p Packet) int {
	l4Len := 0
	if p.Proto == headerview.ProtoTCP || p.Proto == headerview.ProtoUDP {
		l4Len = 4
	}
	return 2 + ipv4.HeaderLen + l4Len + p.PadBytes
}
