// Package feed delivers "participant list changed" updates to dashboard
// subscribers. Notifications carry no diff: on every change the hub
// re-fetches the full list and hands each subscriber a consistent
// snapshot.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bibihez/moos/internal/event"
)

// FetchFunc loads the current participant list for an event.
type FetchFunc func(ctx context.Context, eventID string) ([]event.Participant, error)

// Hub fans participant snapshots out to subscribers, keyed by event.
type Hub struct {
	fetch FetchFunc

	mu   sync.Mutex
	subs map[string]map[uint64]func([]event.Participant)
	next uint64
}

func NewHub(fetch FetchFunc) *Hub {
	return &Hub{
		fetch: fetch,
		subs:  map[string]map[uint64]func([]event.Participant){},
	}
}

// Subscribe registers fn for one event and returns its unsubscribe
// handle. Callers hold at most one subscription per event and must
// invoke the handle when leaving the dashboard.
func (h *Hub) Subscribe(eventID string, fn func([]event.Participant)) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	id := h.next
	if h.subs[eventID] == nil {
		h.subs[eventID] = map[uint64]func([]event.Participant){}
	}
	h.subs[eventID][id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[eventID], id)
		if len(h.subs[eventID]) == 0 {
			delete(h.subs, eventID)
		}
	}
}

// ParticipantsChanged implements event.Notifier. Delivery is
// asynchronous so store writers never block on slow subscribers.
func (h *Hub) ParticipantsChanged(eventID string) {
	h.mu.Lock()
	n := len(h.subs[eventID])
	h.mu.Unlock()
	if n == 0 {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		parts, err := h.fetch(ctx, eventID)
		if err != nil {
			slog.Error("feed refetch failed", "event_id", eventID, "error", err)
			return
		}

		h.mu.Lock()
		fns := make([]func([]event.Participant), 0, len(h.subs[eventID]))
		for _, fn := range h.subs[eventID] {
			fns = append(fns, fn)
		}
		h.mu.Unlock()

		for _, fn := range fns {
			fn(parts)
		}
	}()
}
