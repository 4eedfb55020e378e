// Package shaping mirrors a software DiffServ scheduler's configured
// weights and priority levels onto a real Linux HTB qdisc, so the
// kernel's egress path approximates the same per-class shares the
// software scheduler is deciding with. The mirror is one-way: it reads
// config.QueueConfig once at Apply time and never reads the scheduler's
// queues back. It is not an admission-control layer — classification
// and drop decisions still happen in internal/scheduler.
package shaping

import (
	"errors"

	"github.com/nodepath81/diffservd/internal/config"
	"github.com/nodepath81/diffservd/internal/util"
)

// ErrUnsupported is returned by Apply on platforms without netlink/tc
// support.
var ErrUnsupported = errors.New("shaping: not supported on this platform")

const defaultAggregateBits uint64 = 1_000_000_000

// ClassSpec is one traffic class's shaping attributes, derived from a
// config.QueueConfig in class-index order (matching the order the
// scheduler registers its Traffic Classes in).
type ClassSpec struct {
	Index         int
	DestPort      uint16
	Weight        uint64
	PriorityLevel uint32
	IsDefault     bool
}

// BuildClassSpecs converts a scheduler's Queues config into ClassSpecs
// in registration order. Queues with no Weight set (whether or not they
// carry a Priority) get a Weight of 1, so proportional shaping
// degenerates to an equal split rather than a zero-width class.
func BuildClassSpecs(queues []config.QueueConfig) []ClassSpec {
	specs := make([]ClassSpec, len(queues))
	for i, q := range queues {
		spec := ClassSpec{Index: i, DestPort: q.DestPort, IsDefault: util.BoolValue(q.IsDefault, false)}
		if q.Weight != nil {
			spec.Weight = uint64(*q.Weight)
		} else {
			spec.Weight = 1
		}
		if q.Priority != nil {
			spec.PriorityLevel = *q.Priority
		}
		specs[i] = spec
	}
	return specs
}

// Mirror programs (or reports unsupported for) a kernel qdisc tree
// matching a set of ClassSpecs.
type Mirror interface {
	// Apply replaces any existing qdisc tree on iface with one HTB
	// class per ClassSpec, rate/ceil derived from Weight as a
	// proportional share of aggregateBits, HTB priority derived from
	// PriorityLevel. It is idempotent: calling it again with a new
	// ClassSpec set replaces the previous tree.
	Apply(iface string, classes []ClassSpec, aggregateBits uint64) error
	// Cleanup removes the qdisc tree Apply installed, restoring
	// iface's default qdisc.
	Cleanup(iface string) error
}
