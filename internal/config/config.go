// Package config loads the external Configuration Source — a typed,
// YAML-encoded SchedulerConfig — and builds a scheduler.Scheduler from it.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nodepath81/diffservd/internal/filter"
	"github.com/nodepath81/diffservd/internal/headerview"
	"github.com/nodepath81/diffservd/internal/scheduler"
	"github.com/nodepath81/diffservd/internal/trafficclass"
	"github.com/nodepath81/diffservd/internal/util"
)

const (
	// KindSPQ selects the Strict Priority scheduler.
	KindSPQ = "SPQ"
	// KindDRR selects the Deficit Round Robin scheduler.
	KindDRR = "DRR"
)

// QueueConfig is one traffic class: its admission bound, the destination
// port used to synthesise its DstPort Filter Element, whether it is the
// classification fallback, and its scheduler-specific attribute.
type QueueConfig struct {
	MaxPackets uint32  `yaml:"max_packets"`
	DestPort   uint16  `yaml:"dest_port"`
	IsDefault  *bool   `yaml:"is_default"`
	Priority   *uint32 `yaml:"priority"`
	Weight     *uint32 `yaml:"weight"`
}

// ShapingConfig names the Linux interface the shaping mirror should
// program and the aggregate bandwidth its HTB classes share.
type ShapingConfig struct {
	Interface     string `yaml:"interface"`
	AggregateBits uint64 `yaml:"aggregate_bits"`
}

// SchedulerConfig is the external Configuration Source's typed output.
// Kind/Queues build the core scheduler; the remaining fields configure
// the ambient stack the "run" CLI subcommand wires around it.
type SchedulerConfig struct {
	Kind   string        `yaml:"kind"`
	Queues []QueueConfig `yaml:"queues"`

	ControlAddr string         `yaml:"control_addr"`
	TraceDB     string         `yaml:"trace_db"`
	DemoSeconds float64        `yaml:"demo_interval_seconds"`
	GeoIPDB     string         `yaml:"geoip_db"`
	Shaping     *ShapingConfig `yaml:"shaping"`
}

// LoadConfig reads and YAML-decodes a SchedulerConfig from path. It does
// not validate; call Build to validate and construct a scheduler.
func LoadConfig(path string) (SchedulerConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SchedulerConfig{}, err
	}
	var cfg SchedulerConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return SchedulerConfig{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Build constructs the Scheduler variant named by Kind, with one Traffic
// Class per QueueConfig entry (a DstPort Filter Element synthesised from
// DestPort). Misconfiguration — SPQ queues missing priority, DRR queues
// missing weight, or an unrecognised Kind — is returned as an error and
// is fatal to scheduler creation, per the spec's error taxonomy.
func Build(cfg SchedulerConfig) (scheduler.Scheduler, error) {
	if len(cfg.Queues) == 0 {
		return nil, fmt.Errorf("config: at least one queue is required")
	}

	var sched scheduler.Scheduler
	switch cfg.Kind {
	case KindSPQ:
		sched = scheduler.NewSPQ(headerview.FramingPPP)
	case KindDRR:
		sched = scheduler.NewDRR(headerview.FramingPPP)
	default:
		return nil, fmt.Errorf("config: unrecognised scheduler kind %q", cfg.Kind)
	}

	for i, q := range cfg.Queues {
		class, err := buildClass(cfg.Kind, i, q)
		if err != nil {
			return nil, err
		}
		sched.RegisterQueue(class)
	}
	return sched, nil
}

func buildClass(kind string, index int, q QueueConfig) (*trafficclass.Class, error) {
	classCfg := trafficclass.Config{
		MaxPackets: q.MaxPackets,
		IsDefault:  util.BoolValue(q.IsDefault, false),
	}

	switch kind {
	case KindSPQ:
		if q.Priority == nil {
			return nil, fmt.Errorf("config: queue %d: priority is required for SPQ", index)
		}
		classCfg.PriorityLevel = *q.Priority
	case KindDRR:
		if q.Weight == nil {
			return nil, fmt.Errorf("config: queue %d: weight is required for DRR", index)
		}
		classCfg.Weight = uint64(*q.Weight)
	}

	class := trafficclass.New(classCfg)
	class.AddFilter(filter.New(filter.DstPort(q.DestPort)))
	return class, nil
}
