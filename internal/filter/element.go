// Package filter implements the atomic predicates and their AND
// composition (Filter) used to classify packets into traffic classes; the
// OR across Filters is done by trafficclass.Class.
package filter

import (
	"net"

	"github.com/nodepath81/diffservd/internal/headerview"
)

// Element is a single atomic predicate over a Header View. Implementations
// must be pure functions of (view, params) and must never parse or mutate
// the underlying packet themselves.
type Element interface {
	Matches(view headerview.View) bool
}

type srcAddr struct{ addr net.IP }

// SrcAddr matches an exact source IPv4 address.
func SrcAddr(addr net.IP) Element { return srcAddr{addr: addr.To4()} }

func (e srcAddr) Matches(view headerview.View) bool {
	return view.SrcIP.Equal(e.addr)
}

type dstAddr struct{ addr net.IP }

// DstAddr matches an exact destination IPv4 address.
func DstAddr(addr net.IP) Element { return dstAddr{addr: addr.To4()} }

func (e dstAddr) Matches(view headerview.View) bool {
	return view.DstIP.Equal(e.addr)
}

type srcMask struct {
	mask net.IPMask
	net  net.IP
}

// SrcMask matches (src & mask) == (net & mask). net is normalised against
// mask at construction time so callers may pass either a host or network
// address.
func SrcMask(mask net.IPMask, network net.IP) Element {
	return srcMask{mask: mask, net: network.To4().Mask(mask)}
}

func (e srcMask) Matches(view headerview.View) bool {
	if view.SrcIP == nil {
		return false
	}
	return view.SrcIP.Mask(e.mask).Equal(e.net)
}

type dstMask struct {
	mask net.IPMask
	net  net.IP
}

// DstMask matches (dst & mask) == (net & mask), normalised the same way
// as SrcMask.
func DstMask(mask net.IPMask, network net.IP) Element {
	return dstMask{mask: mask, net: network.To4().Mask(mask)}
}

func (e dstMask) Matches(view headerview.View) bool {
	if view.DstIP == nil {
		return false
	}
	return view.DstIP.Mask(e.mask).Equal(e.net)
}

type srcPort struct{ port uint16 }

// SrcPort matches the source L4 port; evaluates to false when the view
// has no port populated (e.g. non-TCP/UDP protocol or parse failure).
func SrcPort(port uint16) Element { return srcPort{port: port} }

func (e srcPort) Matches(view headerview.View) bool {
	return view.HasPorts && view.SrcPort == e.port
}

type dstPort struct{ port uint16 }

// DstPort matches the destination L4 port, same populated-port caveat
// as SrcPort.
func DstPort(port uint16) Element { return dstPort{port: port} }

func (e dstPort) Matches(view headerview.View) bool {
	return view.HasPorts && view.DstPort == e.port
}

type proto struct{ num uint8 }

// Proto matches the IP protocol number exactly.
func Proto(num uint8) Element { return proto{num: num} }

func (e proto) Matches(view headerview.View) bool {
	return view.Proto == e.num
}
