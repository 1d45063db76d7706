// Package memory implements the sliding-window session memory service:
// windowed reads, batch appends with threshold-triggered background
// compaction, session deletes, and caller-verified trailing trims.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/flemzord/recall/internal/kv"
	"github.com/flemzord/recall/pkg/session"
)

// Compactor is the pluggable routine that condenses a session's older
// messages into its context string. The service treats it as opaque: it
// only schedules runs and releases the registry slot afterwards.
type Compactor interface {
	Compact(ctx context.Context, sessionID string) error
}

// contextSuffix is appended to a session ID to form its context key.
const contextSuffix = "_context"

// ContextKey returns the store key holding a session's compacted context.
func ContextKey(sessionID string) string {
	return sessionID + contextSuffix
}

var tracer = otel.Tracer("github.com/flemzord/recall/internal/memory")

// Service orchestrates memory operations against a kv.ListStore. All its
// methods are safe for concurrent use; the only shared mutable state is
// the cleanup registry, serialised through its own lock.
type Service struct {
	store     kv.ListStore
	window    int
	cleanup   *CleanupRegistry
	compactor Compactor
	events    *Broadcaster
	logger    *slog.Logger

	// compactions tracks in-flight compaction goroutines so Close can
	// drain them before the store goes away.
	compactions sync.WaitGroup
}

// ServiceConfig bundles the Service dependencies.
type ServiceConfig struct {
	Store     kv.ListStore
	Window    int
	Compactor Compactor
	Logger    *slog.Logger
}

// NewService creates a memory service. A nil compactor disables background
// compaction; overflow then only affects the read window, never the stored
// list.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     cfg.Store,
		window:    cfg.Window,
		cleanup:   NewCleanupRegistry(),
		compactor: cfg.Compactor,
		events:    NewBroadcaster(),
		logger:    logger,
	}
}

// Window returns the configured read window / compaction threshold.
func (s *Service) Window() int { return s.window }

// Registry exposes the cleanup registry for observability.
func (s *Service) Registry() *CleanupRegistry { return s.cleanup }

// Events exposes the append-event broadcaster for watch streams.
func (s *Service) Events() *Broadcaster { return s.events }

// Read returns the recent message window (newest first) and the compacted
// context, if any. An unknown session yields an empty result, not an
// error; stored lines that fail to decode are silently dropped.
func (s *Service) Read(ctx context.Context, sessionID string) (session.Memory, error) {
	// Inclusive range, so up to window+1 entries come back.
	lines, err := s.store.LRange(ctx, sessionID, 0, int64(s.window))
	if err != nil {
		storeErrorsTotal.Inc()
		return session.Memory{}, fmt.Errorf("memory: read %s: %w", sessionID, err)
	}

	var memCtx *string
	if v, ok, err := s.store.Get(ctx, ContextKey(sessionID)); err != nil {
		storeErrorsTotal.Inc()
		return session.Memory{}, fmt.Errorf("memory: read context %s: %w", sessionID, err)
	} else if ok {
		memCtx = &v
	}

	readsTotal.Inc()
	return session.Memory{
		Messages: decodeLines(lines),
		Context:  memCtx,
	}, nil
}

// Append encodes the messages and pushes them as one batch to the head of
// the session's list, preserving the caller-given order. If the resulting
// length exceeds the window, it tries to admit a background compaction
// through the cleanup registry; the caller never waits for compaction.
func (s *Service) Append(ctx context.Context, sessionID string, msgs []session.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	lines := make([]string, len(msgs))
	for i, m := range msgs {
		if strings.Contains(m.Role, delimiter) {
			return fmt.Errorf("%w: %q", ErrInvalidRole, m.Role)
		}
		lines[i] = Encode(m)
	}

	length, err := s.store.LPush(ctx, sessionID, lines...)
	if err != nil {
		storeErrorsTotal.Inc()
		return fmt.Errorf("memory: append %s: %w", sessionID, err)
	}

	appendsTotal.Inc()
	messagesAppendedTotal.Add(float64(len(msgs)))
	s.events.Publish(Event{
		SessionID: sessionID,
		Messages:  msgs,
		Time:      time.Now().UTC(),
	})

	if length > int64(s.window) {
		s.maybeCompact(sessionID, length)
	}
	return nil
}

// Delete removes the session's message list and context in one batch.
// Deleting an absent session succeeds as a no-op.
func (s *Service) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.store.Del(ctx, sessionID, ContextKey(sessionID)); err != nil {
		storeErrorsTotal.Inc()
		return fmt.Errorf("memory: delete %s: %w", sessionID, err)
	}
	deletesTotal.Inc()
	return nil
}

// DeleteLast removes the newest count messages, but only after verifying
// that the newest stored message still carries expectedText as content.
// The check makes a client retry of the same delete safe: if newer
// messages arrived in between, the newest no longer matches and the trim
// is rejected with ErrTextMismatch, leaving the list untouched.
func (s *Service) DeleteLast(ctx context.Context, sessionID string, count int, expectedText string) error {
	if count < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidCount, count)
	}

	lines, err := s.store.LRange(ctx, sessionID, 0, int64(count)-1)
	if err != nil {
		storeErrorsTotal.Inc()
		return fmt.Errorf("memory: delete last %s: %w", sessionID, err)
	}
	if len(lines) == 0 {
		trimRejectionsTotal.Inc()
		return fmt.Errorf("%w: session is empty", ErrTextMismatch)
	}

	newest, ok := Decode(lines[0])
	if !ok || newest.Content != expectedText {
		trimRejectionsTotal.Inc()
		return ErrTextMismatch
	}

	if err := s.store.LTrim(ctx, sessionID, int64(count), -1); err != nil {
		storeErrorsTotal.Inc()
		return fmt.Errorf("memory: trim %s: %w", sessionID, err)
	}
	return nil
}

// SweepOverflow scans every session list and admits a compaction for each
// one still over the window. It backstops appends whose triggered
// compaction failed. Returns the number of compactions admitted.
func (s *Service) SweepOverflow(ctx context.Context) (int, error) {
	keys, err := s.store.Keys(ctx)
	if err != nil {
		storeErrorsTotal.Inc()
		return 0, fmt.Errorf("memory: sweep: %w", err)
	}

	admitted := 0
	for _, key := range keys {
		length, err := s.store.LLen(ctx, key)
		if err != nil {
			storeErrorsTotal.Inc()
			return admitted, fmt.Errorf("memory: sweep %s: %w", key, err)
		}
		if length > int64(s.window) && s.admitCompaction(key, length) {
			admitted++
		}
	}
	return admitted, nil
}

// Close waits for in-flight compactions to finish. It does not close the
// store; the owning module does that after the service has drained.
func (s *Service) Close() {
	s.compactions.Wait()
}

func (s *Service) maybeCompact(sessionID string, length int64) {
	if !s.admitCompaction(sessionID, length) {
		s.logger.Debug("compaction already in flight", "session", sessionID)
	}
}

// admitCompaction performs the registry check-and-set and, on winning the
// slot, spawns the detached compaction goroutine. The goroutine uses its
// own background context: the request that triggered it may be long gone
// before the compactor finishes.
func (s *Service) admitCompaction(sessionID string, length int64) bool {
	if s.compactor == nil {
		return false
	}
	if !s.cleanup.TryAcquire(sessionID) {
		return false
	}

	s.logger.Info("compaction admitted", "session", sessionID, "length", length)
	s.compactions.Add(1)
	go s.runCompaction(sessionID)
	return true
}

// runCompaction invokes the compactor and releases the registry slot no
// matter how the run ends. A failed run leaves the context stale until the
// next overflow or sweep re-admits one; the service never retries itself.
func (s *Service) runCompaction(sessionID string) {
	defer s.compactions.Done()
	defer s.cleanup.Release(sessionID)

	ctx, span := tracer.Start(context.Background(), "memory.compaction")
	span.SetAttributes(attribute.String("session.id", sessionID))
	defer span.End()

	start := time.Now()
	if err := s.compactor.Compact(ctx, sessionID); err != nil {
		compactionsTotal.WithLabelValues("failure").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "compaction failed")
		s.logger.Error("compaction failed", "session", sessionID, "error", err)
		return
	}

	compactionsTotal.WithLabelValues("success").Inc()
	s.logger.Info("compaction complete",
		"session", sessionID,
		"duration", time.Since(start),
	)
}
