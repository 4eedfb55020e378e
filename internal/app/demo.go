package app

import (
	"context"
	"math/rand"
	"net"
	"time"

	"github.com/nodepath81/diffservd/internal/config"
	"github.com/nodepath81/diffservd/internal/headerview"
	"github.com/nodepath81/diffservd/internal/packet"
	"github.com/nodepath81/diffservd/internal/scheduler"
	"github.com/nodepath81/diffservd/internal/simulate"
	"github.com/nodepath81/diffservd/internal/util"
)

const defaultDemoInterval = 200 * time.Millisecond

var demoSrcIP = net.IPv4(10, 0, 0, 1)
var demoDstIP = net.IPv4(10, 0, 0, 2)

// demoGenerator feeds synthetic traffic into a scheduler on a fixed
// interval, round-robining destination ports across the configured
// queues. It stands in for the external Host Runtime spec.md places
// out of scope.
type demoGenerator struct {
	sched    scheduler.Scheduler
	ports    []uint16
	interval time.Duration
	logger   util.Logger
	rng      *rand.Rand
}

func newDemoGenerator(sched scheduler.Scheduler, queues []config.QueueConfig, intervalSeconds float64, logger util.Logger) *demoGenerator {
	interval := defaultDemoInterval
	if intervalSeconds > 0 {
		interval = time.Duration(intervalSeconds * float64(time.Second))
	}
	ports := make([]uint16, 0, len(queues))
	for _, q := range queues {
		ports = append(ports, q.DestPort)
	}
	return &demoGenerator{
		sched:    sched,
		ports:    ports,
		interval: interval,
		logger:   logger,
		rng:      rand.New(rand.NewSource(1)),
	}
}

func (d *demoGenerator) run(ctx context.Context) {
	if len(d.ports) == 0 {
		return
	}
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	i := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			port := d.ports[i%len(d.ports)]
			i++
			buf := simulate.Build(simulate.Packet{
				SrcIP:    demoSrcIP,
				DstIP:    demoDstIP,
				Proto:    headerview.ProtoTCP,
				SrcPort:  uint16(1024 + d.rng.Intn(4096)),
				DstPort:  port,
				PadBytes: d.rng.Intn(256),
			})
			pkt := packet.New(buf)
			if !d.sched.Enqueue(pkt) {
				d.logger.Debug("demo packet dropped", "dest_port", port, "size", pkt.Size())
			}
			if out, ok := d.sched.Dequeue(); ok {
				d.logger.Debug("demo packet scheduled", "packet_id", out.ID.String(), "size", out.Size())
			}
		}
	}
}
