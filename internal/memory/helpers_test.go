package memory_test

import (
	"context"
	"errors"
	"sync"

	"github.com/flemzord/recall/pkg/session"
)

func msg(role, content string) session.Message {
	return session.Message{Role: role, Content: content}
}

// fakeCompactor records Compact calls and signals each one on done.
type fakeCompactor struct {
	mu    sync.Mutex
	calls []string
	err   error
	done  chan string

	// block, when non-nil, holds Compact open until closed.
	block chan struct{}
}

func newFakeCompactor() *fakeCompactor {
	return &fakeCompactor{done: make(chan string, 32)}
}

func (c *fakeCompactor) Compact(_ context.Context, sessionID string) error {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	c.calls = append(c.calls, sessionID)
	c.mu.Unlock()
	c.done <- sessionID
	return c.err
}

func (c *fakeCompactor) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// errStore wraps a ListStore and fails every operation.
type errStore struct{}

var errStoreDown = errors.New("store down")

func (errStore) LRange(context.Context, string, int64, int64) ([]string, error) {
	return nil, errStoreDown
}
func (errStore) LPush(context.Context, string, ...string) (int64, error) { return 0, errStoreDown }
func (errStore) LLen(context.Context, string) (int64, error)             { return 0, errStoreDown }
func (errStore) LTrim(context.Context, string, int64, int64) error       { return errStoreDown }
func (errStore) Get(context.Context, string) (string, bool, error)       { return "", false, errStoreDown }
func (errStore) Set(context.Context, string, string) error               { return errStoreDown }
func (errStore) Del(context.Context, ...string) (int64, error)           { return 0, errStoreDown }
func (errStore) Keys(context.Context) ([]string, error)                  { return nil, errStoreDown }
func (errStore) Close() error                                            { return nil }
