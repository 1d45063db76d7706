// Package compact provides the default compaction routine for session
// memory: fold the older half of an overflowing list into the session's
// context string, optionally through an LLM summarizer.
package compact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/flemzord/recall/internal/kv"
	"github.com/flemzord/recall/internal/memory"
	"github.com/flemzord/recall/pkg/session"
)

// ErrCompactionFailed indicates that compaction could not produce a new
// context. The stored list and context are left untouched.
var ErrCompactionFailed = errors.New("compact: compaction failed")

// Summarizer condenses older messages, together with the previous context,
// into a new context string. Implementations typically call an LLM; the
// default simply folds the lines verbatim.
type Summarizer interface {
	Summarize(ctx context.Context, prior string, msgs []session.Message) (string, error)
}

// FoldCompactor implements memory.Compactor. A run reads the whole list,
// keeps the newest half-window, summarizes the remainder with the previous
// context, writes the new context, and trims the list. The context write
// happens before the trim so a crash in between loses no information:
// at worst the next read sees messages that are also covered by the
// context.
type FoldCompactor struct {
	store      kv.ListStore
	window     int
	summarizer Summarizer
	logger     *slog.Logger
}

// NewFoldCompactor creates a compactor over the given store and window.
// A nil summarizer falls back to verbatim folding.
func NewFoldCompactor(store kv.ListStore, window int, summarizer Summarizer, logger *slog.Logger) *FoldCompactor {
	if summarizer == nil {
		summarizer = FoldSummarizer{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FoldCompactor{
		store:      store,
		window:     window,
		summarizer: summarizer,
		logger:     logger,
	}
}

// Compile-time interface check.
var _ memory.Compactor = (*FoldCompactor)(nil)

// Compact condenses the session's overflow into its context string.
func (c *FoldCompactor) Compact(ctx context.Context, sessionID string) error {
	lines, err := c.store.LRange(ctx, sessionID, 0, -1)
	if err != nil {
		return fmt.Errorf("%w: read list: %w", ErrCompactionFailed, err)
	}

	keep := c.window / 2
	if keep < 1 {
		keep = 1
	}
	if len(lines) <= keep {
		// A concurrent delete or trim shrank the list below the keep
		// boundary; nothing left to condense.
		return nil
	}

	older := make([]session.Message, 0, len(lines)-keep)
	for _, line := range lines[keep:] {
		if m, ok := memory.Decode(line); ok {
			older = append(older, m)
		}
	}

	prior, _, err := c.store.Get(ctx, memory.ContextKey(sessionID))
	if err != nil {
		return fmt.Errorf("%w: read context: %w", ErrCompactionFailed, err)
	}

	summary, err := c.summarizer.Summarize(ctx, prior, older)
	if err != nil {
		return fmt.Errorf("%w: summarize: %w", ErrCompactionFailed, err)
	}

	if err := c.store.Set(ctx, memory.ContextKey(sessionID), summary); err != nil {
		return fmt.Errorf("%w: write context: %w", ErrCompactionFailed, err)
	}

	if err := c.store.LTrim(ctx, sessionID, 0, int64(keep)-1); err != nil {
		return fmt.Errorf("%w: trim list: %w", ErrCompactionFailed, err)
	}

	c.logger.Debug("folded session overflow",
		"session", sessionID,
		"condensed", len(older),
		"kept", keep,
	)
	return nil
}

// FoldSummarizer is the no-LLM fallback: older messages are appended to
// the prior context verbatim, oldest first, one line each.
type FoldSummarizer struct{}

// Summarize implements Summarizer.
func (FoldSummarizer) Summarize(_ context.Context, prior string, msgs []session.Message) (string, error) {
	var b strings.Builder
	b.WriteString(prior)

	// msgs arrive newest first; fold oldest first so the context reads
	// chronologically.
	for i := len(msgs) - 1; i >= 0; i-- {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(memory.Encode(msgs[i]))
	}
	return b.String(), nil
}
