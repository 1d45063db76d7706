package gateway

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/flemzord/recall/internal/memory"
	"github.com/flemzord/recall/pkg/session"
)

// fakeMemoryService is an in-test MemoryService with overridable behaviour.
type fakeMemoryService struct {
	mu sync.Mutex

	readFn       func(sessionID string) (session.Memory, error)
	appendErr    error
	deleteErr    error
	deleteLastFn func(sessionID string, count int, text string) error

	appended   map[string][]session.Message
	deleted    []string
	lastTrims  []deleteLastRequest
	inFlight   int
	eventsCh   chan memory.Event
	subscribed []string
}

func newFakeMemoryService() *fakeMemoryService {
	return &fakeMemoryService{
		appended: make(map[string][]session.Message),
		eventsCh: make(chan memory.Event, 16),
	}
}

func (f *fakeMemoryService) Read(_ context.Context, sessionID string) (session.Memory, error) {
	if f.readFn != nil {
		return f.readFn(sessionID)
	}
	return session.Memory{}, nil
}

func (f *fakeMemoryService) Append(_ context.Context, sessionID string, msgs []session.Message) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended[sessionID] = append(f.appended[sessionID], msgs...)
	return nil
}

func (f *fakeMemoryService) Delete(_ context.Context, sessionID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, sessionID)
	return nil
}

func (f *fakeMemoryService) DeleteLast(_ context.Context, sessionID string, count int, text string) error {
	if f.deleteLastFn != nil {
		return f.deleteLastFn(sessionID, count, text)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastTrims = append(f.lastTrims, deleteLastRequest{Count: count, MessageText: text})
	return nil
}

func (f *fakeMemoryService) Subscribe(sessionID string) (<-chan memory.Event, func()) {
	f.mu.Lock()
	f.subscribed = append(f.subscribed, sessionID)
	f.mu.Unlock()
	return f.eventsCh, func() {}
}

func (f *fakeMemoryService) InFlight() int { return f.inFlight }

// newTestGateway wires a Gateway around a fake service, bypassing the
// module lifecycle.
func newTestGateway(svc MemoryService, cfg Config) *Gateway {
	cfg.defaults()
	return &Gateway{
		config:    cfg,
		logger:    slog.New(slog.DiscardHandler),
		svc:       svc,
		startedAt: time.Now(),
	}
}
