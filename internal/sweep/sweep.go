// Package sweep implements the memory.sweep module: a cron-scheduled scan
// that re-admits compaction for any session list still over the window.
// It backstops the append-triggered path when a compaction run failed and
// the session would otherwise stay overflowing until its next append.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/flemzord/recall/internal/core"
)

func init() {
	core.RegisterModule(&Module{})
}

// Interface guards.
var (
	_ core.Module       = (*Module)(nil)
	_ core.Configurable = (*Module)(nil)
	_ core.Provisioner  = (*Module)(nil)
	_ core.Validator    = (*Module)(nil)
	_ core.Starter      = (*Module)(nil)
	_ core.Stopper      = (*Module)(nil)
)

const defaultSchedule = "*/5 * * * *"

// scheduleParser accepts standard five-field cron expressions.
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Sweeper is the slice of the memory service the sweep needs.
type Sweeper interface {
	SweepOverflow(ctx context.Context) (int, error)
}

// Config holds the memory.sweep module configuration.
type Config struct {
	// Schedule is a five-field cron expression. Defaults to every 5 minutes.
	Schedule string `yaml:"schedule"`

	// Timeout bounds a single sweep run. Defaults to 1 minute.
	Timeout time.Duration `yaml:"timeout"`
}

func (c *Config) defaults() {
	if c.Schedule == "" {
		c.Schedule = defaultSchedule
	}
	if c.Timeout <= 0 {
		c.Timeout = time.Minute
	}
}

// Module is the memory.sweep module.
type Module struct {
	config Config
	appCtx *core.AppContext
	logger *slog.Logger
	cron   *cron.Cron
	svc    Sweeper

	// running skips a tick when the previous sweep is still in flight.
	// TryLock is atomic, so there is no race between check and acquire.
	running sync.Mutex
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "memory.sweep",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("sweep: decode config: %w", err)
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.appCtx = ctx
	m.logger = ctx.Logger
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	if _, err := scheduleParser.Parse(m.config.Schedule); err != nil {
		return fmt.Errorf("sweep: invalid schedule %q: %w", m.config.Schedule, err)
	}
	return nil
}

// Start implements core.Starter.
func (m *Module) Start() error {
	if svc, ok := m.appCtx.Service("memory.service"); ok {
		m.svc, _ = svc.(Sweeper)
	}
	if m.svc == nil {
		return errors.New("sweep: memory.service not available")
	}

	m.cron = cron.New(cron.WithParser(scheduleParser))
	if _, err := m.cron.AddFunc(m.config.Schedule, m.tick); err != nil {
		return fmt.Errorf("sweep: schedule job: %w", err)
	}

	m.cron.Start()
	m.logger.Info("overflow sweep scheduled", "schedule", m.config.Schedule)
	return nil
}

// Stop implements core.Stopper, waiting for an in-flight sweep.
func (m *Module) Stop(_ context.Context) error {
	if m.cron != nil {
		<-m.cron.Stop().Done()
		m.logger.Info("overflow sweep stopped")
	}
	return nil
}

func (m *Module) tick() {
	if !m.running.TryLock() {
		m.logger.Warn("previous sweep still running, skipping tick")
		return
	}
	defer m.running.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.config.Timeout)
	defer cancel()

	admitted, err := m.svc.SweepOverflow(ctx)
	if err != nil {
		m.logger.Error("overflow sweep failed", "error", err)
		return
	}
	if admitted > 0 {
		m.logger.Info("overflow sweep admitted compactions", "admitted", admitted)
	}
}
