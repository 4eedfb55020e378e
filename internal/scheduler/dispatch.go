// Package scheduler implements the DiffServ dispatch layer: classify on
// enqueue, schedule on dequeue, against a queue-discipline contract shared
// by the SPQ and DRR scheduler variants.
package scheduler

import (
	"sync"

	"github.com/nodepath81/diffservd/internal/headerview"
	"github.com/nodepath81/diffservd/internal/packet"
	"github.com/nodepath81/diffservd/internal/trafficclass"
)

// Scheduler is the queue-discipline contract the host runtime's device
// driver invokes. SPQ and DRR are the two implementations; a new variant
// is added by composing another DispatchCore rather than by subclassing.
type Scheduler interface {
	Enqueue(pkt *packet.Packet) bool
	Dequeue() (*packet.Packet, bool)
	Remove() (*packet.Packet, bool)
	Peek() (*packet.Packet, bool)
	Classify(pkt *packet.Packet) (int, bool)
	RegisterQueue(c *trafficclass.Class)
	Stats() []ClassStats
	SetObserver(o Observer)
}

// ClassStats is a read-only snapshot of one traffic class, used by
// internal/control to render a live view without reaching into scheduler
// internals.
type ClassStats struct {
	Index         int
	Len           int
	MaxPackets    uint32
	Weight        uint64
	PriorityLevel uint32
	IsDefault     bool
}

// Event describes one committed classify/enqueue/dequeue/drop decision,
// delivered to an optional Observer (internal/trace, internal/control).
type Event struct {
	Op         string
	ClassIndex int
	Packet     *packet.Packet
	Accepted   bool
}

// Observer receives Events. Implementations must not block or call back
// into the Scheduler.
type Observer interface {
	Observe(Event)
}

// scheduleDecision is the shadow record a variant's schedule function
// returns: which class to pop from, and (for DRR) how to promote shadow
// state to canonical state if the commit actually happens. SPQ's commit
// is nil since SPQ carries no state to promote.
type scheduleDecision struct {
	classIndex int
	commit     func()
}

// DispatchCore owns the Traffic Classes and implements everything the
// spec's DiffServ dispatch layer needs except schedule() itself, which
// each variant supplies as a closure over its own private state.
type DispatchCore struct {
	mu       sync.Mutex
	framing  headerview.Framing
	classes  []*trafficclass.Class
	schedule func() (scheduleDecision, bool)
	observer Observer
}

// NewDispatchCore constructs an empty core. framing describes the
// link-layer header Classify expects to find ahead of the IPv4 datagram.
func NewDispatchCore(framing headerview.Framing) *DispatchCore {
	return &DispatchCore{framing: framing}
}

// SetObserver attaches an optional event sink. Passing nil disables
// observation; it is never required for correctness.
func (d *DispatchCore) SetObserver(o Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observer = o
}

func (d *DispatchCore) appendClass(c *trafficclass.Class) {
	d.classes = append(d.classes, c)
}

// Classify walks classes in order and returns the index of the first
// matching class, or the first default class if none match. It returns
// (-1, false) if classification fails entirely (I4).
func (d *DispatchCore) Classify(pkt *packet.Packet) (int, bool) {
	view, _ := headerview.Parse(pkt.Data, d.framing)
	defaultIndex := -1
	for i, c := range d.classes {
		if c.Matches(view) {
			return i, true
		}
		if defaultIndex == -1 && c.IsDefault() {
			defaultIndex = i
		}
	}
	if defaultIndex >= 0 {
		return defaultIndex, true
	}
	return -1, false
}

// Enqueue classifies pkt and forwards it to the selected class's FIFO.
func (d *DispatchCore) Enqueue(pkt *packet.Packet) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx, ok := d.Classify(pkt)
	if !ok {
		d.emit(Event{Op: "enqueue", ClassIndex: -1, Packet: pkt, Accepted: false})
		return false
	}
	accepted := d.classes[idx].Enqueue(pkt)
	d.emit(Event{Op: "enqueue", ClassIndex: idx, Packet: pkt, Accepted: accepted})
	return accepted
}

// Dequeue pops the packet schedule() selects and promotes shadow state to
// canonical state on success.
func (d *DispatchCore) Dequeue() (*packet.Packet, bool) {
	return d.popWith(func(c *trafficclass.Class) (*packet.Packet, bool) { return c.Dequeue() }, true)
}

// Remove is semantically identical to Dequeue but suppresses the
// observer hook, matching the source's historical split between the two.
func (d *DispatchCore) Remove() (*packet.Packet, bool) {
	return d.popWith(func(c *trafficclass.Class) (*packet.Packet, bool) { return c.Remove() }, false)
}

func (d *DispatchCore) popWith(pop func(*trafficclass.Class) (*packet.Packet, bool), notify bool) (*packet.Packet, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	dec, ok := d.schedule()
	if !ok {
		return nil, false
	}
	pkt, ok := pop(d.classes[dec.classIndex])
	if !ok {
		return nil, false
	}
	if dec.commit != nil {
		dec.commit()
	}
	if notify {
		d.emit(Event{Op: "dequeue", ClassIndex: dec.classIndex, Packet: pkt, Accepted: true})
	}
	return pkt, true
}

// Peek returns the scheduled head without removing it or promoting any
// shadow state (I3).
func (d *DispatchCore) Peek() (*packet.Packet, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	dec, ok := d.schedule()
	if !ok {
		return nil, false
	}
	return d.classes[dec.classIndex].Peek()
}

// Stats snapshots every registered class for external inspection.
func (d *DispatchCore) Stats() []ClassStats {
	d.mu.Lock()
	defer d.mu.Unlock()

	stats := make([]ClassStats, len(d.classes))
	for i, c := range d.classes {
		stats[i] = ClassStats{
			Index:         i,
			Len:           c.Len(),
			MaxPackets:    c.MaxPackets(),
			Weight:        c.Weight(),
			PriorityLevel: c.PriorityLevel(),
			IsDefault:     c.IsDefault(),
		}
	}
	return stats
}

func (d *DispatchCore) emit(evt Event) {
	if d.observer == nil {
		return
	}
	d.observer.Observe(evt)
}
