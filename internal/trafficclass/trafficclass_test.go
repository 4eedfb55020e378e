package trafficclass_test

import (
	"testing"

	"github.com/nodepath81/diffservd/internal/filter"
	"github.com/nodepath81/diffservd/internal/headerview"
	"github.com/nodepath81/diffservd/internal/packet"
	"github.com/nodepath81/diffservd/internal/trafficclass"
)

func TestNewDefaultsMaxPackets(t *testing.T) {
	c := trafficclass.New(trafficclass.Config{})
	if got := c.MaxPackets(); got != trafficclass.DefaultMaxPackets {
		t.Fatalf("MaxPackets = %d, want %d", got, trafficclass.DefaultMaxPackets)
	}
}

func TestEnqueueDequeueFIFO(t *testing.T) {
	c := trafficclass.New(trafficclass.Config{MaxPackets: 2})
	p1 := packet.New([]byte("a"))
	p2 := packet.New([]byte("b"))

	if !c.Enqueue(p1) || !c.Enqueue(p2) {
		t.Fatal("enqueue under capacity should succeed")
	}
	if c.Enqueue(packet.New([]byte("c"))) {
		t.Fatal("enqueue over capacity should drop-tail")
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}

	got, ok := c.Dequeue()
	if !ok || got != p1 {
		t.Fatal("Dequeue should return p1 first (FIFO)")
	}
	got, ok = c.Dequeue()
	if !ok || got != p2 {
		t.Fatal("Dequeue should return p2 second (FIFO)")
	}
	if _, ok := c.Dequeue(); ok {
		t.Fatal("Dequeue on empty class should report false")
	}
}

func TestPeekDoesNotRemove(t *testing.T) {
	c := trafficclass.New(trafficclass.Config{MaxPackets: 1})
	p := packet.New([]byte("a"))
	c.Enqueue(p)

	got, ok := c.Peek()
	if !ok || got != p {
		t.Fatal("Peek should return the head")
	}
	if c.Len() != 1 {
		t.Fatal("Peek must not remove the packet")
	}
}

func TestMatchesOR(t *testing.T) {
	c := trafficclass.New(trafficclass.Config{})
	c.AddFilter(filter.New(filter.DstPort(80)))
	c.AddFilter(filter.New(filter.DstPort(443)))

	v80 := headerview.View{HasPorts: true, DstPort: 80}
	v443 := headerview.View{HasPorts: true, DstPort: 443}
	v22 := headerview.View{HasPorts: true, DstPort: 22}

	if !c.Matches(v80) || !c.Matches(v443) {
		t.Error("class should match either filter")
	}
	if c.Matches(v22) {
		t.Error("class should not match neither filter")
	}
}

func TestMatchesWildcardWhenNoFilters(t *testing.T) {
	c := trafficclass.New(trafficclass.Config{})
	if !c.Matches(headerview.View{}) {
		t.Error("class with no filters should match everything")
	}
}

func TestIsEmpty(t *testing.T) {
	c := trafficclass.New(trafficclass.Config{MaxPackets: 1})
	if !c.IsEmpty() {
		t.Error("new class should be empty")
	}
	c.Enqueue(packet.New(nil))
	if c.IsEmpty() {
		t.Error("class with one packet should not be empty")
	}
}

func TestAttributeGetters(t *testing.T) {
	c := trafficclass.New(trafficclass.Config{Weight: 5, PriorityLevel: 3, IsDefault: true})
	if c.Weight() != 5 {
		t.Errorf("Weight = %d, want 5", c.Weight())
	}
	if c.PriorityLevel() != 3 {
		t.Errorf("PriorityLevel = %d, want 3", c.PriorityLevel())
	}
	if !c.IsDefault() {
		t.Error("IsDefault should be true")
	}
}
