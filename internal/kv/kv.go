// Package kv defines the list-oriented key-value store contract the memory
// service runs against, plus an in-process implementation. The primitives
// follow Redis list semantics: ranges are inclusive on both ends and
// negative indices count back from the end of the list.
package kv

import "context"

// ListStore is the storage adapter for session message lists and context
// strings. Implementations must be safe for concurrent use. Operations are
// atomic at the single-key level; no cross-key atomicity is guaranteed.
type ListStore interface {
	// LRange returns the elements of the list at key between start and stop,
	// both inclusive. An absent key yields an empty result, not an error.
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// LPush prepends values to the list at key, one at a time in argument
	// order, so the last value ends up at the head. Returns the new length.
	LPush(ctx context.Context, key string, values ...string) (int64, error)

	// LLen returns the length of the list at key (0 if absent).
	LLen(ctx context.Context, key string) (int64, error)

	// LTrim discards every element outside the inclusive [start, stop]
	// range. Trimming to an empty range removes the key entirely.
	LTrim(ctx context.Context, key string, start, stop int64) error

	// Get returns the string value at key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores a string value at key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Del removes the given keys (list or string) and returns how many
	// existed. Deleting absent keys is not an error.
	Del(ctx context.Context, keys ...string) (int64, error)

	// Keys returns the keys of all existing lists.
	Keys(ctx context.Context) ([]string, error)

	// Close releases the underlying store connection.
	Close() error
}

// NormalizeRange converts a possibly-negative inclusive [start, stop]
// range into concrete slice bounds for a list of length n, for use by
// ListStore implementations. The third return is false when the range
// selects nothing.
func NormalizeRange(start, stop, n int64) (int64, int64, bool) {
	if n == 0 {
		return 0, 0, false
	}
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start >= n || start > stop || stop < 0 {
		return 0, 0, false
	}
	return start, stop, true
}
