package scheduler

import (
	"math"

	"github.com/nodepath81/diffservd/internal/headerview"
	"github.com/nodepath81/diffservd/internal/trafficclass"
)

// SPQ is the Strict Priority Queueing scheduler: it always serves the
// non-empty class with the smallest priority_level, starving lower
// priority classes by design. It carries no scheduling state between
// invocations.
type SPQ struct {
	*DispatchCore
}

// NewSPQ constructs an empty SPQ scheduler. framing is passed through to
// Classify's header parsing.
func NewSPQ(framing headerview.Framing) *SPQ {
	s := &SPQ{DispatchCore: NewDispatchCore(framing)}
	s.schedule = s.scheduleSPQ
	return s
}

// RegisterQueue appends a class. SPQ needs no per-class state beyond what
// trafficclass.Class already carries.
func (s *SPQ) RegisterQueue(c *trafficclass.Class) {
	s.appendClass(c)
}

func (s *SPQ) scheduleSPQ() (scheduleDecision, bool) {
	best := -1
	bestPriority := uint32(math.MaxUint32)
	for i, c := range s.classes {
		if c.IsEmpty() {
			continue
		}
		if best == -1 || c.PriorityLevel() < bestPriority {
			best = i
			bestPriority = c.PriorityLevel()
		}
	}
	if best == -1 {
		return scheduleDecision{}, false
	}
	return scheduleDecision{classIndex: best}, true
}
