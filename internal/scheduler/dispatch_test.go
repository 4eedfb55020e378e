package scheduler_test

import (
	"net"
	"testing"

	"github.com/nodepath81/diffservd/internal/filter"
	"github.com/nodepath81/diffservd/internal/headerview"
	"github.com/nodepath81/diffservd/internal/packet"
	"github.com/nodepath81/diffservd/internal/scheduler"
	"github.com/nodepath81/diffservd/internal/trafficclass"
)

// TestEnqueueDequeueRoundTrip is R1: a single-class scheduler returns
// the same packet it was given, FIFO.
func TestEnqueueDequeueRoundTrip(t *testing.T) {
	s := scheduler.NewSPQ(headerview.FramingPPP)
	s.RegisterQueue(trafficclass.New(trafficclass.Config{IsDefault: true}))

	pkt := buildPacketSized(t, 1, 0)
	if !s.Enqueue(pkt) {
		t.Fatal("enqueue failed")
	}
	got, ok := s.Dequeue()
	if !ok || got != pkt {
		t.Fatal("dequeue should return the same packet that was enqueued")
	}
}

// TestPeekThenDequeueSameIdentity is R2.
func TestPeekThenDequeueSameIdentity(t *testing.T) {
	s := scheduler.NewDRR(headerview.FramingPPP)
	s.RegisterQueue(trafficclass.New(trafficclass.Config{Weight: 1, IsDefault: true}))

	pkt := buildPacketSized(t, 1, 0)
	s.Enqueue(pkt)

	peeked, ok1 := s.Peek()
	dequeued, ok2 := s.Dequeue()
	if !ok1 || !ok2 || peeked.ID != dequeued.ID {
		t.Fatal("Peek and Dequeue should agree on packet identity")
	}
}

// TestClassifyMaskedAddress is scenario S5.
func TestClassifyMaskedAddress(t *testing.T) {
	s := scheduler.NewSPQ(headerview.FramingPPP)
	c := trafficclass.New(trafficclass.Config{})
	c.AddFilter(filter.New(filter.DstMask(net.CIDRMask(8, 32), net.ParseIP("192.0.0.0"))))
	s.RegisterQueue(c)

	matching := packet.New(buildRawPacket("192.168.1.5"))
	nonMatching := packet.New(buildRawPacket("19.0.0.0"))

	if _, ok := s.Classify(matching); !ok {
		t.Error("192.168.1.5 should match 192.0.0.0/8")
	}
	if _, ok := s.Classify(nonMatching); ok {
		t.Error("19.0.0.0 should not match 192.0.0.0/8 with no default class")
	}
}

// TestClassifyParseFailureNeverMatches is I5: a packet that fails to
// parse classifies as false, never panics or aborts.
func TestClassifyParseFailureNeverMatches(t *testing.T) {
	s := scheduler.NewSPQ(headerview.FramingPPP)
	c := trafficclass.New(trafficclass.Config{})
	c.AddFilter(filter.New(filter.DstPort(80)))
	s.RegisterQueue(c)

	garbage := packet.New([]byte{0x00})
	if _, ok := s.Classify(garbage); ok {
		t.Error("a packet that fails header parsing should not classify into a non-default class")
	}
}

// TestRemoveSuppressesObserver checks Remove and Dequeue both pop the
// same way, but only Dequeue notifies an Observer.
func TestRemoveSuppressesObserver(t *testing.T) {
	s := scheduler.NewSPQ(headerview.FramingPPP)
	s.RegisterQueue(trafficclass.New(trafficclass.Config{IsDefault: true}))

	var events []scheduler.Event
	s.SetObserver(recorderObserver(func(e scheduler.Event) { events = append(events, e) }))

	s.Enqueue(buildPacketSized(t, 1, 0))
	s.Enqueue(buildPacketSized(t, 1, 0))

	if _, ok := s.Remove(); !ok {
		t.Fatal("Remove should succeed")
	}
	if _, ok := s.Dequeue(); !ok {
		t.Fatal("Dequeue should succeed")
	}

	dequeueEvents := 0
	for _, e := range events {
		if e.Op == "dequeue" {
			dequeueEvents++
		}
	}
	if dequeueEvents != 1 {
		t.Fatalf("dequeue events observed = %d, want 1 (Remove must not notify)", dequeueEvents)
	}
}

type recorderObserver func(scheduler.Event)

func (r recorderObserver) Observe(e scheduler.Event) { r(e) }
