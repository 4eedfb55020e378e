// Package trafficclass implements a bounded per-class FIFO plus the
// disjunction of Filters that selects which packets it admits.
package trafficclass

import (
	"github.com/nodepath81/diffservd/internal/filter"
	"github.com/nodepath81/diffservd/internal/headerview"
	"github.com/nodepath81/diffservd/internal/packet"
)

// DefaultMaxPackets is used when a Config leaves MaxPackets at zero.
const DefaultMaxPackets = 100

// Config carries a Class's fixed scheduling attributes.
type Config struct {
	MaxPackets    uint32
	Weight        uint64
	PriorityLevel uint32
	IsDefault     bool
}

// Class is a bounded FIFO of packet handles guarded by a disjunction of
// Filters, plus the scheduling attributes SPQ/DRR read.
type Class struct {
	cfg     Config
	filters []*filter.Filter
	queue   []*packet.Packet
}

// New constructs an empty Class. A zero MaxPackets defaults to
// DefaultMaxPackets.
func New(cfg Config) *Class {
	if cfg.MaxPackets == 0 {
		cfg.MaxPackets = DefaultMaxPackets
	}
	return &Class{cfg: cfg}
}

// AddFilter appends a Filter to the OR-list. Append-only, configuration time.
func (c *Class) AddFilter(f *filter.Filter) {
	c.filters = append(c.filters, f)
}

// Matches returns true iff any contained Filter matches, or the Filter
// list is empty (wildcard class).
func (c *Class) Matches(view headerview.View) bool {
	if len(c.filters) == 0 {
		return true
	}
	for _, f := range c.filters {
		if f.Matches(view) {
			return true
		}
	}
	return false
}

// IsDefault reports whether this class is the classification fallback.
func (c *Class) IsDefault() bool { return c.cfg.IsDefault }

// Weight is the DRR quantum, in bytes, added per visit.
func (c *Class) Weight() uint64 { return c.cfg.Weight }

// PriorityLevel is the SPQ priority; smaller is more urgent.
func (c *Class) PriorityLevel() uint32 { return c.cfg.PriorityLevel }

// MaxPackets is the FIFO's admission bound.
func (c *Class) MaxPackets() uint32 { return c.cfg.MaxPackets }

// Len is the current packet_count; I1 requires this equal len(queue) always.
func (c *Class) Len() int { return len(c.queue) }

// IsEmpty reports packet_count == 0.
func (c *Class) IsEmpty() bool { return len(c.queue) == 0 }

// Enqueue appends pkt if under MaxPackets, drop-tail otherwise. No
// existing packet is ever evicted.
func (c *Class) Enqueue(pkt *packet.Packet) bool {
	if uint32(len(c.queue)) >= c.cfg.MaxPackets {
		return false
	}
	c.queue = append(c.queue, pkt)
	return true
}

// Dequeue pops the head, or reports false if empty.
func (c *Class) Dequeue() (*packet.Packet, bool) {
	return c.pop()
}

// Remove is identical to Dequeue; kept distinct so a future observability
// hook (e.g. the control server's drop counters) can diverge from the
// normal dequeue path without touching callers.
func (c *Class) Remove() (*packet.Packet, bool) {
	return c.pop()
}

func (c *Class) pop() (*packet.Packet, bool) {
	if len(c.queue) == 0 {
		return nil, false
	}
	pkt := c.queue[0]
	c.queue[0] = nil
	c.queue = c.queue[1:]
	return pkt, true
}

// Peek returns the head without removing it.
func (c *Class) Peek() (*packet.Packet, bool) {
	if len(c.queue) == 0 {
		return nil, false
	}
	return c.queue[0], true
}
