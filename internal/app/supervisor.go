// Package app composes the core scheduler with its ambient stack —
// config loading, the control server, tracing, shaping, and demo
// traffic — into a single process lifecycle for cmd/diffservd.
package app

import (
	"sync"

	"github.com/nodepath81/diffservd/internal/config"
	"github.com/nodepath81/diffservd/internal/util"
)

// Supervisor owns the process lifecycle: load config, build a Runtime,
// start it, and tear it down cleanly on Stop.
type Supervisor struct {
	configPath string
	logger     util.Logger

	mu      sync.Mutex
	runtime *Runtime
}

// NewSupervisor builds a Supervisor that will load its configuration
// from configPath when Start is called.
func NewSupervisor(configPath string, logger util.Logger) *Supervisor {
	return &Supervisor{configPath: configPath, logger: logger}
}

// Start loads the configuration, builds the runtime, and brings it up.
func (s *Supervisor) Start() error {
	cfg, err := config.LoadConfig(s.configPath)
	if err != nil {
		return err
	}
	rt, err := NewRuntime(cfg, s.logger)
	if err != nil {
		return err
	}
	if err := rt.Start(); err != nil {
		rt.Stop()
		return err
	}
	s.mu.Lock()
	s.runtime = rt
	s.mu.Unlock()
	return nil
}

// Stop tears down the running Runtime, if any.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	current := s.runtime
	s.runtime = nil
	s.mu.Unlock()
	if current != nil {
		current.Stop()
	}
}
