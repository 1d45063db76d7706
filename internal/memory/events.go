package memory

import (
	"sync"
	"time"

	"github.com/flemzord/recall/pkg/session"
)

// Event describes a batch of messages appended to a session. Events feed
// the gateway's watch stream; delivery is best-effort.
type Event struct {
	SessionID string            `json:"session_id"`
	Messages  []session.Message `json:"messages"`
	Time      time.Time         `json:"time"`
}

const subscriberBuffer = 16

// Broadcaster fans appended-message events out to per-session subscribers.
// Slow subscribers lose events rather than block the append path.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers interest in a session's append events. The returned
// cancel function must be called to release the subscription; after cancel
// the channel is closed.
func (b *Broadcaster) Subscribe(sessionID string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan Event]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if set, ok := b.subs[sessionID]; ok {
			if _, live := set[ch]; live {
				delete(set, ch)
				close(ch)
				if len(set) == 0 {
					delete(b.subs, sessionID)
				}
			}
		}
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of its session without
// blocking: a full subscriber buffer drops the event for that subscriber.
func (b *Broadcaster) Publish(evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs[evt.SessionID] {
		select {
		case ch <- evt:
		default:
		}
	}
}
