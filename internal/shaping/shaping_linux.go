//go:build linux

package shaping

import (
	"fmt"

	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netlink/nl"
	"golang.org/x/sys/unix"
)

const (
	handleMajorHTB uint16 = 1
	classRootMinor uint16 = 1
	// classBaseMinor is the minor of class index 0, leaving room below it
	// for the root class. It is also the HTB default class, so traffic no
	// filter matches goes to class index 0.
	classBaseMinor uint16 = 10

	filterBaseHandle uint32 = 0x10
)

// netlinkMirror is the Linux Mirror, built on github.com/vishvananda/netlink.
type netlinkMirror struct{}

// NewMirror returns the platform's Mirror implementation.
func NewMirror() Mirror { return &netlinkMirror{} }

func (netlinkMirror) Apply(iface string, classes []ClassSpec, aggregateBits uint64) error {
	if aggregateBits == 0 {
		aggregateBits = defaultAggregateBits
	}
	dev, err := netlink.LinkByName(iface)
	if err != nil {
		return fmt.Errorf("shaping: interface %s not found: %w", iface, err)
	}
	if err := clearQdiscs(dev); err != nil {
		return fmt.Errorf("shaping: clear qdiscs on %s: %w", iface, err)
	}

	idx := dev.Attrs().Index
	rootQdiscHandle := netlink.MakeHandle(handleMajorHTB, 0)
	rootClassID := netlink.MakeHandle(handleMajorHTB, classRootMinor)
	aggBytes := aggregateBits / 8

	htb := netlink.NewHtb(netlink.QdiscAttrs{
		LinkIndex: idx,
		Handle:    rootQdiscHandle,
		Parent:    netlink.HANDLE_ROOT,
	})
	htb.Defcls = uint32(classBaseMinor)
	htb.Rate2Quantum = 100
	if err := qdiscReplaceOrAdd(htb); err != nil {
		return fmt.Errorf("shaping: add/replace root htb qdisc on %s: %w", iface, err)
	}
	if err := classReplaceOrAdd(&netlink.HtbClass{
		ClassAttrs: netlink.ClassAttrs{LinkIndex: idx, Handle: rootClassID, Parent: rootQdiscHandle},
		Rate:       aggBytes,
		Ceil:       aggBytes,
	}); err != nil {
		return fmt.Errorf("shaping: add/replace root class on %s: %w", iface, err)
	}

	totalWeight := uint64(0)
	for _, c := range classes {
		totalWeight += c.Weight
	}
	if totalWeight == 0 {
		totalWeight = 1
	}

	for _, c := range classes {
		minor := classBaseMinor + uint16(c.Index)
		classID := netlink.MakeHandle(handleMajorHTB, minor)

		share := aggBytes * c.Weight / totalWeight
		if share == 0 {
			share = 1
		}
		if err := classReplaceOrAdd(&netlink.HtbClass{
			ClassAttrs: netlink.ClassAttrs{LinkIndex: idx, Handle: classID, Parent: rootClassID},
			Rate:       share,
			Ceil:       aggBytes,
			Prio:       htbPriority(c.PriorityLevel),
		}); err != nil {
			return fmt.Errorf("shaping: add/replace class 1:%d on %s: %w", minor, iface, err)
		}
		if err := ensureFqCodel(idx, classID, netlink.MakeHandle(minor, 0)); err != nil {
			return fmt.Errorf("shaping: fq_codel under class 1:%d on %s: %w", minor, iface, err)
		}

		ipProto := nl.IPProto(uint8(unix.IPPROTO_TCP))
		flower := &netlink.Flower{
			FilterAttrs: netlink.FilterAttrs{
				LinkIndex: idx,
				Parent:    rootQdiscHandle,
				Priority:  uint16(c.Index) + 1,
				Protocol:  unix.ETH_P_IP,
				Handle:    filterBaseHandle + uint32(c.Index),
			},
			EthType:  unix.ETH_P_IP,
			IPProto:  &ipProto,
			DestPort: c.DestPort,
			ClassId:  classID,
		}
		if err := netlink.FilterReplace(flower); err != nil {
			return fmt.Errorf("shaping: add/replace flower filter for class 1:%d on %s: %w", minor, iface, err)
		}
	}
	return nil
}

func (netlinkMirror) Cleanup(iface string) error {
	dev, err := netlink.LinkByName(iface)
	if err != nil {
		return fmt.Errorf("shaping: interface %s not found: %w", iface, err)
	}
	return clearQdiscs(dev)
}

// htbPriority clamps a Traffic Class's priority_level into HTB's 0-7
// band range; lower is served first, matching the scheduler's own
// "smallest priority_level wins" tie-break.
func htbPriority(level uint32) uint32 {
	if level > 7 {
		return 7
	}
	return level
}

func clearQdiscs(link netlink.Link) error {
	qdiscs, err := netlink.QdiscList(link)
	if err != nil {
		return fmt.Errorf("QdiscList: %w", err)
	}
	for _, q := range qdiscs {
		if q.Attrs().Parent == netlink.HANDLE_ROOT {
			_ = netlink.QdiscDel(q)
		}
	}
	return nil
}

func ensureFqCodel(linkIndex int, parent uint32, handle uint32) error {
	fq := netlink.NewFqCodel(netlink.QdiscAttrs{
		LinkIndex: linkIndex,
		Parent:    parent,
		Handle:    handle,
	})
	return qdiscReplaceOrAdd(fq)
}

func qdiscReplaceOrAdd(q netlink.Qdisc) error {
	if err := netlink.QdiscReplace(q); err == nil {
		return nil
	}
	_ = netlink.QdiscDel(q)
	if err := netlink.QdiscAdd(q); err != nil {
		return fmt.Errorf("replace failed, add failed: %w", err)
	}
	return nil
}

func classReplaceOrAdd(c netlink.Class) error {
	replaceErr := netlink.ClassReplace(c)
	if replaceErr == nil {
		return nil
	}
	_ = netlink.ClassDel(c)
	if err := netlink.ClassAdd(c); err != nil {
		return fmt.Errorf("replace failed, add failed: %w / %v", err, replaceErr)
	}
	return nil
}
