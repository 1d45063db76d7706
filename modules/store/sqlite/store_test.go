package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T, path string) (*listStore, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err := migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &listStore{db: db}, db
}

func newTestStore(t *testing.T) *listStore {
	t.Helper()
	store, _ := openTestStore(t, filepath.Join(t.TempDir(), "test.db"))
	return store
}

func TestListStore_LPushOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	n, err := store.LPush(ctx, "s1", "a", "b", "c")
	if err != nil {
		t.Fatalf("LPush: unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("LPush returned length %d, want 3", n)
	}

	got, err := store.LRange(ctx, "s1", 0, -1)
	if err != nil {
		t.Fatalf("LRange: unexpected error: %v", err)
	}
	want := []string{"c", "b", "a"}
	if len(got) != len(want) {
		t.Fatalf("LRange = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("LRange[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestListStore_LPush_SuccessivePushes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	// Two separate pushes; the later batch sits above the earlier one.
	if _, err := store.LPush(ctx, "s1", "a", "b"); err != nil {
		t.Fatalf("LPush: unexpected error: %v", err)
	}
	if _, err := store.LPush(ctx, "s1", "c", "d"); err != nil {
		t.Fatalf("LPush (second): unexpected error: %v", err)
	}

	got, err := store.LRange(ctx, "s1", 0, -1)
	if err != nil {
		t.Fatalf("LRange: unexpected error: %v", err)
	}
	want := []string{"d", "c", "b", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("LRange[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestListStore_LRange_Windows(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	if _, err := store.LPush(ctx, "s1", "a", "b", "c", "d", "e"); err != nil {
		t.Fatalf("LPush: unexpected error: %v", err)
	}

	tests := []struct {
		name        string
		start, stop int64
		want        []string
	}{
		{name: "prefix", start: 0, stop: 2, want: []string{"e", "d", "c"}},
		{name: "clamped", start: 0, stop: 99, want: []string{"e", "d", "c", "b", "a"}},
		{name: "tail", start: -2, stop: -1, want: []string{"b", "a"}},
		{name: "empty", start: 7, stop: 9, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := store.LRange(ctx, "s1", tt.start, tt.stop)
			if err != nil {
				t.Fatalf("LRange(%d, %d): unexpected error: %v", tt.start, tt.stop, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("LRange(%d, %d) = %v, want %v", tt.start, tt.stop, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("LRange(%d, %d)[%d] = %q, want %q", tt.start, tt.stop, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestListStore_LTrim(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	if _, err := store.LPush(ctx, "s1", "a", "b", "c", "d", "e"); err != nil {
		t.Fatalf("LPush: unexpected error: %v", err)
	}

	if err := store.LTrim(ctx, "s1", 2, -1); err != nil {
		t.Fatalf("LTrim: unexpected error: %v", err)
	}

	got, err := store.LRange(ctx, "s1", 0, -1)
	if err != nil {
		t.Fatalf("LRange: unexpected error: %v", err)
	}
	want := []string{"c", "b", "a"}
	if len(got) != len(want) {
		t.Fatalf("after LTrim = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("after LTrim[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestListStore_LTrim_EmptyRangeClearsList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)
	if _, err := store.LPush(ctx, "s1", "a", "b"); err != nil {
		t.Fatalf("LPush: unexpected error: %v", err)
	}

	if err := store.LTrim(ctx, "s1", 10, 20); err != nil {
		t.Fatalf("LTrim: unexpected error: %v", err)
	}

	n, err := store.LLen(ctx, "s1")
	if err != nil {
		t.Fatalf("LLen: unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("LLen after empty trim = %d, want 0", n)
	}

	keys, err := store.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: unexpected error: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("Keys after empty trim = %v, want none", keys)
	}
}

func TestListStore_GetSetDel(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	if _, ok, err := store.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("Get before Set: ok=%v, err=%v, want absent", ok, err)
	}

	if err := store.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("Set: unexpected error: %v", err)
	}
	if err := store.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("Set (overwrite): unexpected error: %v", err)
	}

	v, ok, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: unexpected error: %v", err)
	}
	if !ok || v != "v2" {
		t.Fatalf("Get = (%q, %v), want (\"v2\", true)", v, ok)
	}

	if _, err := store.LPush(ctx, "s1", "line"); err != nil {
		t.Fatalf("LPush: unexpected error: %v", err)
	}

	n, err := store.Del(ctx, "s1", "k", "absent")
	if err != nil {
		t.Fatalf("Del: unexpected error: %v", err)
	}
	if n != 2 {
		t.Fatalf("Del = %d, want 2", n)
	}

	n, err = store.Del(ctx, "s1", "k")
	if err != nil {
		t.Fatalf("Del (repeat): unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("Del (repeat) = %d, want 0", n)
	}
}

func TestListStore_Keys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.LPush(ctx, "s1", "a"); err != nil {
		t.Fatalf("LPush: unexpected error: %v", err)
	}
	if _, err := store.LPush(ctx, "s2", "b", "c"); err != nil {
		t.Fatalf("LPush: unexpected error: %v", err)
	}
	// A string key is not a list key.
	if err := store.Set(ctx, "s3_context", "summary"); err != nil {
		t.Fatalf("Set: unexpected error: %v", err)
	}

	keys, err := store.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: unexpected error: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("Keys = %v, want 2 list keys", keys)
	}
}

func TestListStore_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persist.db")

	store, db := openTestStore(t, path)
	if _, err := store.LPush(ctx, "s1", "survives"); err != nil {
		t.Fatalf("LPush: unexpected error: %v", err)
	}
	if err := store.Set(ctx, "s1_context", "kept"); err != nil {
		t.Fatalf("Set: unexpected error: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}

	reopened, _ := openTestStore(t, path)

	got, err := reopened.LRange(ctx, "s1", 0, -1)
	if err != nil {
		t.Fatalf("LRange after reopen: unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != "survives" {
		t.Fatalf("LRange after reopen = %v, want [survives]", got)
	}

	v, ok, err := reopened.Get(ctx, "s1_context")
	if err != nil || !ok || v != "kept" {
		t.Fatalf("Get after reopen = (%q, %v, %v), want (\"kept\", true, nil)", v, ok, err)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "migrate.db")
	_, db := openTestStore(t, path)

	// Re-running migration against an up-to-date schema is a no-op.
	if err := migrate(db); err != nil {
		t.Fatalf("second migrate: unexpected error: %v", err)
	}
}

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.defaults()

	if !cfg.walEnabled() {
		t.Error("WAL should default to enabled")
	}
	if cfg.BusyTimeout != defaultBusyTimeout {
		t.Errorf("BusyTimeout = %d, want %d", cfg.BusyTimeout, defaultBusyTimeout)
	}
	if err := cfg.validate(); err != nil {
		t.Errorf("validate: unexpected error: %v", err)
	}

	cfg.BusyTimeout = -1
	if err := cfg.validate(); err == nil {
		t.Error("validate should reject a negative busy_timeout")
	}
}
