// Package packet defines the opaque packet handle the scheduler core
// passes between the host runtime, the classifier, and the traffic
// classes' FIFOs.
package packet

import "github.com/google/uuid"

// Packet is the opaque handle the queue discipline operates on. The
// scheduler core never interprets Data beyond handing it to headerview.Parse;
// ID exists purely for tracing/observability (internal/trace, internal/control).
type Packet struct {
	ID   uuid.UUID
	Data []byte
}

// New wraps a raw byte buffer, stamping it with a fresh identity for
// tracing purposes.
func New(data []byte) *Packet {
	return &Packet{ID: uuid.New(), Data: data}
}

// Size is the byte count DRR's deficit counters are denominated in.
func (p *Packet) Size() int {
	if p == nil {
		return 0
	}
	return len(p.Data)
}
