package memory_test

import (
	"context"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/flemzord/recall/internal/core"
	"github.com/flemzord/recall/internal/kv"
	"github.com/flemzord/recall/internal/memory"
	"github.com/flemzord/recall/pkg/session"
)

func TestModule_Lifecycle_FallbackStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	appCtx := core.NewAppContext(nil, t.TempDir())

	m := &memory.Module{}
	if err := m.Provision(appCtx); err != nil {
		t.Fatalf("Provision: unexpected error: %v", err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: unexpected error: %v", err)
	}

	// Provision publishes the module for the gateway to resolve.
	if _, ok := appCtx.Service("memory.service"); !ok {
		t.Fatal("Provision should register memory.service")
	}

	// No store module configured; Start falls back to the in-process store.
	if err := m.Start(); err != nil {
		t.Fatalf("Start: unexpected error: %v", err)
	}
	defer func() {
		if err := m.Stop(ctx); err != nil {
			t.Errorf("Stop: unexpected error: %v", err)
		}
	}()

	if err := m.Append(ctx, "s1", []session.Message{{Role: "user", Content: "hi"}}); err != nil {
		t.Fatalf("Append: unexpected error: %v", err)
	}
	mem, err := m.Read(ctx, "s1")
	if err != nil {
		t.Fatalf("Read: unexpected error: %v", err)
	}
	if len(mem.Messages) != 1 {
		t.Fatalf("Read: got %d messages, want 1", len(mem.Messages))
	}
}

func TestModule_UsesRegisteredStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	appCtx := core.NewAppContext(nil, t.TempDir())

	store := kv.NewMemStore()
	appCtx.RegisterService("store.kv", store)

	m := &memory.Module{}
	if err := m.Provision(appCtx); err != nil {
		t.Fatalf("Provision: unexpected error: %v", err)
	}
	if err := m.Start(); err != nil {
		t.Fatalf("Start: unexpected error: %v", err)
	}
	defer func() { _ = m.Stop(ctx) }()

	if err := m.Append(ctx, "s1", []session.Message{{Role: "user", Content: "shared"}}); err != nil {
		t.Fatalf("Append: unexpected error: %v", err)
	}

	// The write landed in the registered store, not a private fallback.
	n, err := store.LLen(ctx, "s1")
	if err != nil {
		t.Fatalf("LLen: unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("LLen = %d, want 1", n)
	}
}

func TestModule_OperationsBeforeStart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := &memory.Module{}
	if err := m.Provision(core.NewAppContext(nil, t.TempDir())); err != nil {
		t.Fatalf("Provision: unexpected error: %v", err)
	}

	if _, err := m.Read(ctx, "s1"); err == nil {
		t.Error("Read before Start should fail")
	}
	if err := m.Append(ctx, "s1", []session.Message{{Role: "user", Content: "x"}}); err == nil {
		t.Error("Append before Start should fail")
	}
	if m.InFlight() != 0 {
		t.Error("InFlight before Start should be 0")
	}
}

func TestModule_WindowValidation(t *testing.T) {
	t.Parallel()

	m := &memory.Module{}
	if err := m.Provision(core.NewAppContext(nil, t.TempDir())); err != nil {
		t.Fatalf("Provision: unexpected error: %v", err)
	}

	// The default window is applied in Provision.
	if err := m.Validate(); err != nil {
		t.Errorf("Validate with defaults: unexpected error: %v", err)
	}

	bad := &memory.Module{}
	if err := bad.Configure(mustYAMLNode(t, "window_size: -3")); err != nil {
		t.Fatalf("Configure: unexpected error: %v", err)
	}
	if err := bad.Validate(); err == nil {
		t.Error("Validate should reject a negative window_size")
	}
}

func mustYAMLNode(t *testing.T, raw string) *yaml.Node {
	t.Helper()
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &node); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	return node.Content[0]
}
