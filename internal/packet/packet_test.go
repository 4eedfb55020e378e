package packet_test

import (
	"testing"

	"github.com/nodepath81/diffservd/internal/packet"
)

func TestNewAssignsUniqueID(t *testing.T) {
	a := packet.New([]byte("a"))
	b := packet.New([]byte("b"))
	if a.ID == b.ID {
		t.Fatal("two packets should not share an ID")
	}
}

func TestSize(t *testing.T) {
	p := packet.New([]byte("hello"))
	if p.Size() != 5 {
		t.Fatalf("Size() = %d, want 5", p.Size())
	}
	var nilPkt *packet.Packet
	if nilPkt.Size() != 0 {
		t.Fatalf("Size() on nil packet = %d, want 0", nilPkt.Size())
	}
}
