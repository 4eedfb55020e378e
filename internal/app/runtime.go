package app

import (
	"context"
	"runtime"
	"sync"

	"github.com/nodepath81/diffservd/internal/config"
	"github.com/nodepath81/diffservd/internal/control"
	"github.com/nodepath81/diffservd/internal/scheduler"
	"github.com/nodepath81/diffservd/internal/shaping"
	"github.com/nodepath81/diffservd/internal/trace"
	"github.com/nodepath81/diffservd/internal/util"
)

const defaultControlAddr = ":8088"

// Runtime wires a built scheduler together with the ambient stack
// around it: the control server, an optional trace store, an optional
// shaping mirror, and the demo traffic generator.
type Runtime struct {
	cfg    config.SchedulerConfig
	logger util.Logger

	sched   scheduler.Scheduler
	control *control.Server
	tracer  *trace.Store
	mirror  shaping.Mirror

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRuntime builds every ambient component around cfg's scheduler but
// does not start any of them yet.
func NewRuntime(cfg config.SchedulerConfig, logger util.Logger) (*Runtime, error) {
	sched, err := config.Build(cfg)
	if err != nil {
		return nil, err
	}

	var tracer *trace.Store
	if cfg.TraceDB != "" {
		tracer, err = trace.Open(cfg.TraceDB)
		if err != nil {
			logger.Warn("trace store disabled", "path", cfg.TraceDB, "error", err)
			tracer = nil
		}
	}

	addr := cfg.ControlAddr
	if addr == "" {
		addr = defaultControlAddr
	}
	ctrl := control.NewServer(addr, sched, logger)

	sched.SetObserver(newFanoutObserver(tracer, ctrl))

	ctx, cancel := context.WithCancel(context.Background())
	return &Runtime{
		cfg:     cfg,
		logger:  logger,
		sched:   sched,
		control: ctrl,
		tracer:  tracer,
		mirror:  shaping.NewMirror(),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start brings the ambient stack up: control server, shaping mirror,
// demo traffic generator.
func (r *Runtime) Start() error {
	if err := r.control.Start(); err != nil {
		return err
	}

	if r.cfg.Shaping != nil {
		if runtime.GOOS != "linux" {
			r.logger.Warn("shaping mirror requested but unsupported on this platform", "goos", runtime.GOOS)
		} else {
			specs := shaping.BuildClassSpecs(r.cfg.Queues)
			if err := r.mirror.Apply(r.cfg.Shaping.Interface, specs, r.cfg.Shaping.AggregateBits); err != nil {
				r.logger.Error("shaping mirror apply failed", "interface", r.cfg.Shaping.Interface, "error", err)
			}
		}
	}

	demo := newDemoGenerator(r.sched, r.cfg.Queues, r.cfg.DemoSeconds, r.logger)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		demo.run(r.ctx)
	}()

	return nil
}

// Stop tears down every component Start brought up.
func (r *Runtime) Stop() {
	r.cancel()
	r.wg.Wait()

	if r.cfg.Shaping != nil && runtime.GOOS == "linux" {
		if err := r.mirror.Cleanup(r.cfg.Shaping.Interface); err != nil {
			r.logger.Warn("shaping mirror cleanup failed", "interface", r.cfg.Shaping.Interface, "error", err)
		}
	}
	r.control.Stop()
	if r.tracer != nil {
		_ = r.tracer.Close()
	}
}
