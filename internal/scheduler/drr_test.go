package scheduler_test

import (
	"testing"

	"github.com/nodepath81/diffservd/internal/filter"
	"github.com/nodepath81/diffservd/internal/headerview"
	"github.com/nodepath81/diffservd/internal/scheduler"
	"github.com/nodepath81/diffservd/internal/trafficclass"
)

// TestDRRExhaustion is scenario S3: class weight 70 holds an 80-byte
// packet, class weight 50 holds a 40-byte packet. The 40-byte packet
// must dequeue first since it fits under a single 50-credit quantum.
func TestDRRExhaustion(t *testing.T) {
	d := scheduler.NewDRR(headerview.FramingPPP)
	c70 := trafficclass.New(trafficclass.Config{Weight: 70, IsDefault: true})
	c50 := trafficclass.New(trafficclass.Config{Weight: 50})
	c70.AddFilter(filter.New(filter.DstPort(1)))
	c50.AddFilter(filter.New(filter.DstPort(2)))
	d.RegisterQueue(c70)
	d.RegisterQueue(c50)

	base := buildPacketSized(t, 1, 0).Size()
	pktBig := buildPacketSized(t, 1, 80-base)
	pktSmall := buildPacketSized(t, 2, 40-base)

	if !d.Enqueue(pktBig) {
		t.Fatal("enqueue of 80-byte packet failed")
	}
	if !d.Enqueue(pktSmall) {
		t.Fatal("enqueue of 40-byte packet failed")
	}

	got, ok := d.Dequeue()
	if !ok {
		t.Fatal("dequeue should succeed")
	}
	if got != pktSmall {
		t.Fatal("first dequeue should be the 40-byte packet (weight-50 class)")
	}
}

// TestDRRIdempotentSchedule is P4: Peek called twice in a row (no
// commit happens on Peek) returns the same packet identity both times.
func TestDRRIdempotentSchedule(t *testing.T) {
	d := scheduler.NewDRR(headerview.FramingPPP)
	c := trafficclass.New(trafficclass.Config{Weight: 10, IsDefault: true})
	d.RegisterQueue(c)
	pkt := buildPacketSized(t, 1, 0)
	d.Enqueue(pkt)

	first, ok1 := d.Peek()
	second, ok2 := d.Peek()
	if !ok1 || !ok2 || first != second {
		t.Fatal("repeated Peek without commit should return the same packet")
	}
}

// TestDRRPeekDoesNotCommit is P5's converse: Peek must never promote
// shadow state, only an actual Dequeue may.
func TestDRRPeekDoesNotCommit(t *testing.T) {
	d := scheduler.NewDRR(headerview.FramingPPP)
	c0 := trafficclass.New(trafficclass.Config{Weight: 1, IsDefault: true})
	c1 := trafficclass.New(trafficclass.Config{Weight: 1})
	c1.AddFilter(filter.New(filter.DstPort(2)))
	d.RegisterQueue(c0)
	d.RegisterQueue(c1)

	d.Enqueue(buildPacketSized(t, 1, 0))
	d.Enqueue(buildPacketSized(t, 2, 0))

	before := d.Deficit()
	d.Peek()
	after := d.Deficit()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("Peek mutated canonical deficit at index %d: %d -> %d", i, before[i], after[i])
		}
	}
}

// TestDRRProportionalService is scenario S2: weights 100 and 50, each
// holding a 200-byte packet. Class 0 needs two visits (100+100=200) to
// clear its packet; class 1 needs four (50*4=200). The first dequeue
// must be class 0's packet.
func TestDRRProportionalService(t *testing.T) {
	d := scheduler.NewDRR(headerview.FramingPPP)
	c0 := trafficclass.New(trafficclass.Config{Weight: 100, IsDefault: true})
	c1 := trafficclass.New(trafficclass.Config{Weight: 50})
	c0.AddFilter(filter.New(filter.DstPort(1)))
	c1.AddFilter(filter.New(filter.DstPort(2)))
	d.RegisterQueue(c0)
	d.RegisterQueue(c1)

	base := buildPacketSized(t, 1, 0).Size()
	pkt0 := buildPacketSized(t, 1, 200-base)
	pkt1 := buildPacketSized(t, 2, 200-base)
	d.Enqueue(pkt0)
	d.Enqueue(pkt1)

	got, ok := d.Dequeue()
	if !ok || got != pkt0 {
		t.Fatal("first dequeue should be class 0's packet (reaches its 200-byte quantum first)")
	}
}

// TestDRRDeficitLenMatchesClasses is P2.
func TestDRRDeficitLenMatchesClasses(t *testing.T) {
	d := scheduler.NewDRR(headerview.FramingPPP)
	for i := 0; i < 3; i++ {
		d.RegisterQueue(trafficclass.New(trafficclass.Config{Weight: 1, IsDefault: i == 0}))
	}
	if len(d.Deficit()) != 3 {
		t.Fatalf("Deficit length = %d, want 3", len(d.Deficit()))
	}
	pkt := buildPacketSized(t, 1, 0)
	d.Enqueue(pkt)
	d.Dequeue()
	if len(d.Deficit()) != 3 {
		t.Fatalf("Deficit length after dequeue = %d, want 3", len(d.Deficit()))
	}
}
