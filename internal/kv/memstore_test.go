package kv_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/flemzord/recall/internal/kv"
)

// Compile-time interface guard.
var _ kv.ListStore = (*kv.MemStore)(nil)

func TestMemStore_LPushOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kv.NewMemStore()

	// Pushing a, b, c one call at a time leaves c at the head.
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
		t.Fatalf("LRange: got %d elements, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("LRange[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMemStore_LRange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kv.NewMemStore()
	// List is e, d, c, b, a with e at index 0.
	if _, err := store.LPush(ctx, "s1", "a", "b", "c", "d", "e"); err != nil {
		t.Fatalf("LPush: unexpected error: %v", err)
	}

	tests := []struct {
		name        string
		start, stop int64
		want        []string
	}{
		{name: "full list", start: 0, stop: -1, want: []string{"e", "d", "c", "b", "a"}},
		{name: "prefix", start: 0, stop: 2, want: []string{"e", "d", "c"}},
		{name: "stop past end clamps", start: 0, stop: 100, want: []string{"e", "d", "c", "b", "a"}},
		{name: "negative start", start: -2, stop: -1, want: []string{"b", "a"}},
		{name: "inverted range", start: 3, stop: 1, want: nil},
		{name: "start past end", start: 9, stop: 12, want: nil},
		{name: "single element", start: 2, stop: 2, want: []string{"c"}},
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

func TestMemStore_LRange_AbsentKey(t *testing.T) {
	t.Parallel()

	store := kv.NewMemStore()

	got, err := store.LRange(context.Background(), "nope", 0, -1)
	if err != nil {
		t.Fatalf("LRange: unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("LRange on absent key = %v, want nil", got)
	}
}

func TestMemStore_LTrim(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kv.NewMemStore()
	if _, err := store.LPush(ctx, "s1", "a", "b", "c", "d", "e"); err != nil {
		t.Fatalf("LPush: unexpected error: %v", err)
	}

	// Keep everything from index 2 on.
	if err := store.LTrim(ctx, "s1", 2, -1); err != nil {
		t.Fatalf("LTrim: unexpected error: %v", err)
	}

	got, err := store.LRange(ctx, "s1", 0, -1)
	if err != nil {
		t.Fatalf("LRange: unexpected error: %v", err)
	}
	want := []string{"c", "b", "a"}
	if len(got) != len(want) {
		t.Fatalf("after LTrim: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("after LTrim[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMemStore_LTrim_EmptyRangeDeletesKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kv.NewMemStore()
	if _, err := store.LPush(ctx, "s1", "a", "b"); err != nil {
		t.Fatalf("LPush: unexpected error: %v", err)
	}

	// Trimming past the end selects nothing, which removes the key.
	if err := store.LTrim(ctx, "s1", 5, 10); err != nil {
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

func TestMemStore_LTrim_AbsentKey(t *testing.T) {
	t.Parallel()

	store := kv.NewMemStore()
	if err := store.LTrim(context.Background(), "nope", 0, 1); err != nil {
		t.Fatalf("LTrim on absent key: unexpected error: %v", err)
	}
}

func TestMemStore_GetSet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kv.NewMemStore()

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
}

func TestMemStore_Del(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kv.NewMemStore()
	if _, err := store.LPush(ctx, "s1", "a"); err != nil {
		t.Fatalf("LPush: unexpected error: %v", err)
	}
	if err := store.Set(ctx, "s1_context", "summary"); err != nil {
		t.Fatalf("Set: unexpected error: %v", err)
	}

	n, err := store.Del(ctx, "s1", "s1_context", "absent")
	if err != nil {
		t.Fatalf("Del: unexpected error: %v", err)
	}
	if n != 2 {
		t.Fatalf("Del = %d, want 2", n)
	}

	// A second delete finds nothing.
	n, err = store.Del(ctx, "s1", "s1_context")
	if err != nil {
		t.Fatalf("Del (repeat): unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("Del (repeat) = %d, want 0", n)
	}
}

func TestMemStore_LRange_ReturnsCopy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kv.NewMemStore()
	if _, err := store.LPush(ctx, "s1", "original"); err != nil {
		t.Fatalf("LPush: unexpected error: %v", err)
	}

	got, err := store.LRange(ctx, "s1", 0, -1)
	if err != nil {
		t.Fatalf("LRange: unexpected error: %v", err)
	}
	got[0] = "mutated"

	again, err := store.LRange(ctx, "s1", 0, -1)
	if err != nil {
		t.Fatalf("LRange (second): unexpected error: %v", err)
	}
	if again[0] != "original" {
		t.Fatalf("LRange after mutation = %q, want %q", again[0], "original")
	}
}

func TestMemStore_Concurrent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kv.NewMemStore()

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(goroutine int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if _, err := store.LPush(ctx, "s1", fmt.Sprintf("g%d-%d", goroutine, i)); err != nil {
					t.Errorf("LPush from goroutine %d: unexpected error: %v", goroutine, err)
				}
				if _, err := store.LRange(ctx, "s1", 0, 4); err != nil {
					t.Errorf("LRange from goroutine %d: unexpected error: %v", goroutine, err)
				}
			}
		}(g)
	}
	wg.Wait()

	n, err := store.LLen(ctx, "s1")
	if err != nil {
		t.Fatalf("LLen: unexpected error: %v", err)
	}
	if n != 1000 {
		t.Fatalf("LLen = %d, want 1000", n)
	}
}

func TestNormalizeRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		start, stop, n int64
		wantLo, wantHi int64
		wantOK         bool
	}{
		{name: "full", start: 0, stop: -1, n: 5, wantLo: 0, wantHi: 4, wantOK: true},
		{name: "clamped stop", start: 0, stop: 99, n: 5, wantLo: 0, wantHi: 4, wantOK: true},
		{name: "negative both", start: -3, stop: -2, n: 5, wantLo: 2, wantHi: 3, wantOK: true},
		{name: "start under zero clamps", start: -99, stop: 2, n: 5, wantLo: 0, wantHi: 2, wantOK: true},
		{name: "empty list", start: 0, stop: -1, n: 0, wantOK: false},
		{name: "start past end", start: 5, stop: 9, n: 5, wantOK: false},
		{name: "inverted", start: 3, stop: 1, n: 5, wantOK: false},
		{name: "stop before start after wrap", start: 0, stop: -9, n: 5, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			lo, hi, ok := kv.NormalizeRange(tt.start, tt.stop, tt.n)
			if ok != tt.wantOK {
				t.Fatalf("NormalizeRange(%d, %d, %d) ok = %v, want %v", tt.start, tt.stop, tt.n, ok, tt.wantOK)
			}
			if ok && (lo != tt.wantLo || hi != tt.wantHi) {
				t.Errorf("NormalizeRange(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tt.start, tt.stop, tt.n, lo, hi, tt.wantLo, tt.wantHi)
			}
		})
	}
}
