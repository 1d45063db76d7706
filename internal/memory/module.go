package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/flemzord/recall/internal/core"
	"github.com/flemzord/recall/internal/kv"
	"github.com/flemzord/recall/pkg/session"
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

const defaultWindowSize = 12

// Config holds the memory.service module configuration.
type Config struct {
	// WindowSize is the read window and the compaction threshold.
	WindowSize int `yaml:"window_size"`

	// Compaction toggles background compaction. Defaults to true.
	Compaction *bool `yaml:"compaction"`
}

func (c *Config) defaults() {
	if c.WindowSize == 0 {
		c.WindowSize = defaultWindowSize
	}
	if c.Compaction == nil {
		t := true
		c.Compaction = &t
	}
}

func (c *Config) compactionEnabled() bool {
	return c.Compaction == nil || *c.Compaction
}

// errNotStarted guards the short window between the gateway coming up and
// this module's Start binding the store.
var errNotStarted = errors.New("memory: service not started")

// Module is the memory.service module. It owns the Service lifecycle and
// exposes the memory operations to other modules via the service registry
// under "memory.service".
type Module struct {
	config Config
	appCtx *core.AppContext
	logger *slog.Logger
	svc    *Service

	// ownedStore is set when no store module is configured and the module
	// falls back to the in-process store; it is closed on Stop.
	ownedStore kv.ListStore
}

// ModuleInfo implements core.Module.
func (m *Module) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "memory.service",
		New: func() core.Module { return &Module{} },
	}
}

// Configure implements core.Configurable.
func (m *Module) Configure(node *yaml.Node) error {
	if err := node.Decode(&m.config); err != nil {
		return fmt.Errorf("memory: decode config: %w", err)
	}
	m.config.defaults()
	return nil
}

// Provision implements core.Provisioner. The module registers itself
// before any Start runs; the store and summarizer are bound lazily in
// Start, after every module had a chance to register its services.
func (m *Module) Provision(ctx *core.AppContext) error {
	m.config.defaults()
	m.appCtx = ctx
	m.logger = ctx.Logger
	ctx.RegisterService("memory.service", m)
	return nil
}

// Validate implements core.Validator.
func (m *Module) Validate() error {
	if m.config.WindowSize < 1 {
		return fmt.Errorf("memory: window_size must be at least 1, got %d", m.config.WindowSize)
	}
	return nil
}

// Start implements core.Starter. It resolves the store and summarizer
// from the service registry and builds the Service.
func (m *Module) Start() error {
	store := m.resolveStore()
	svcCfg := ServiceConfig{
		Store:  store,
		Window: m.config.WindowSize,
		Logger: m.logger,
	}

	if m.config.compactionEnabled() {
		svcCfg.Compactor = m.resolveCompactor(store)
	} else {
		m.logger.Info("background compaction disabled")
	}

	m.svc = NewService(svcCfg)
	m.logger.Info("memory service started", "window_size", m.config.WindowSize)
	return nil
}

// Stop implements core.Stopper. It drains in-flight compactions before
// the fallback store (if owned) is closed.
func (m *Module) Stop(_ context.Context) error {
	if m.svc != nil {
		m.svc.Close()
	}
	if m.ownedStore != nil {
		return m.ownedStore.Close()
	}
	return nil
}

// Service returns the underlying service, or nil before Start.
func (m *Module) Service() *Service { return m.svc }

func (m *Module) resolveStore() kv.ListStore {
	if svc, ok := m.appCtx.Service("store.kv"); ok {
		if store, ok := svc.(kv.ListStore); ok {
			return store
		}
	}
	m.logger.Warn("no store module configured, using in-process store (data is not persistent)")
	m.ownedStore = kv.NewMemStore()
	return m.ownedStore
}

// resolveCompactor builds the compactor from the registered factory. The
// factory indirection keeps this package free of a dependency on the
// compact package, which needs the codec from here.
func (m *Module) resolveCompactor(store kv.ListStore) Compactor {
	if svc, ok := m.appCtx.Service("memory.compactor_factory"); ok {
		if factory, ok := svc.(CompactorFactory); ok {
			return factory(store, m.config.WindowSize)
		}
	}
	return nil
}

// CompactorFactory builds a Compactor bound to a store and window. The
// application registers one under "memory.compactor_factory" during wiring.
type CompactorFactory func(store kv.ListStore, window int) Compactor

// --- delegated operations ---

// Read delegates to the running service.
func (m *Module) Read(ctx context.Context, sessionID string) (session.Memory, error) {
	if m.svc == nil {
		return session.Memory{}, errNotStarted
	}
	return m.svc.Read(ctx, sessionID)
}

// Append delegates to the running service.
func (m *Module) Append(ctx context.Context, sessionID string, msgs []session.Message) error {
	if m.svc == nil {
		return errNotStarted
	}
	return m.svc.Append(ctx, sessionID, msgs)
}

// Delete delegates to the running service.
func (m *Module) Delete(ctx context.Context, sessionID string) error {
	if m.svc == nil {
		return errNotStarted
	}
	return m.svc.Delete(ctx, sessionID)
}

// DeleteLast delegates to the running service.
func (m *Module) DeleteLast(ctx context.Context, sessionID string, count int, expectedText string) error {
	if m.svc == nil {
		return errNotStarted
	}
	return m.svc.DeleteLast(ctx, sessionID, count, expectedText)
}

// SweepOverflow delegates to the running service.
func (m *Module) SweepOverflow(ctx context.Context) (int, error) {
	if m.svc == nil {
		return 0, errNotStarted
	}
	return m.svc.SweepOverflow(ctx)
}

// Subscribe subscribes to the session's append events.
func (m *Module) Subscribe(sessionID string) (<-chan Event, func()) {
	if m.svc == nil {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}
	return m.svc.Events().Subscribe(sessionID)
}

// InFlight reports the number of compactions currently running.
func (m *Module) InFlight() int {
	if m.svc == nil {
		return 0
	}
	return m.svc.Registry().Len()
}
