package scheduler

import (
	"github.com/nodepath81/diffservd/internal/headerview"
	"github.com/nodepath81/diffservd/internal/trafficclass"
)

// DRR is the Deficit Round Robin scheduler (Shreedhar & Varghese, SIGCOMM
// '95). weight is the quantum, in bytes, added to a class's deficit
// counter per visit.
type DRR struct {
	*DispatchCore

	active  int
	deficit []uint64
}

// NewDRR constructs an empty DRR scheduler.
func NewDRR(framing headerview.Framing) *DRR {
	d := &DRR{DispatchCore: NewDispatchCore(framing)}
	d.schedule = d.scheduleDRR
	return d
}

// RegisterQueue appends a class and its zeroed deficit counter (I2).
func (d *DRR) RegisterQueue(c *trafficclass.Class) {
	d.appendClass(c)
	d.deficit = append(d.deficit, 0)
}

// Active is the class index that produced the most recently committed
// packet.
func (d *DRR) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Deficit returns a copy of the canonical per-class deficit counters.
func (d *DRR) Deficit() []uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]uint64(nil), d.deficit...)
}

// scheduleDRR implements the peek phase of DRR: §4.7. It never mutates
// d.active/d.deficit directly; it returns a commit closure over a local
// shadow copy that the dispatch layer invokes only when a packet is
// actually popped.
func (d *DRR) scheduleDRR() (scheduleDecision, bool) {
	n := len(d.classes)
	if n == 0 {
		return scheduleDecision{}, false
	}

	allEmpty := true
	for _, c := range d.classes {
		if !c.IsEmpty() {
			allEmpty = false
			break
		}
	}
	if allEmpty {
		return scheduleDecision{}, false
	}

	pendingActive := d.active
	pendingDeficit := append([]uint64(nil), d.deficit...)

	maxVisits := d.visitBound(n)
	for visit := 0; visit < maxVisits; visit++ {
		c := d.classes[pendingActive]
		if !c.IsEmpty() {
			pendingDeficit[pendingActive] += c.Weight()
			head, _ := c.Peek()
			size := uint64(head.Size())
			if size <= pendingDeficit[pendingActive] {
				pendingDeficit[pendingActive] -= size
				chosen := pendingActive
				committed := pendingDeficit
				return scheduleDecision{
					classIndex: chosen,
					commit: func() {
						d.active = chosen
						d.deficit = committed
					},
				}, true
			}
		}
		pendingActive = (pendingActive + 1) % n
	}
	return scheduleDecision{}, false
}

// visitBound derives a scan bound of O(n*H), H being the largest
// (head size / weight) ratio among non-empty classes, so scheduleDRR is
// guaranteed to terminate even for pathological configurations (e.g. a
// zero-weight class that can never accumulate enough deficit).
func (d *DRR) visitBound(n int) int {
	maxH := uint64(1)
	for _, c := range d.classes {
		if c.IsEmpty() {
			continue
		}
		head, ok := c.Peek()
		if !ok {
			continue
		}
		w := c.Weight()
		if w == 0 {
			w = 1
		}
		size := uint64(head.Size())
		h := size / w
		if size%w != 0 {
			h++
		}
		if h > maxH {
			maxH = h
		}
	}
	return n * int(maxH+1)
}
