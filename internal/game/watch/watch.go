// Package watch fans out per-game change notifications.
//
// Notifications are triggers, not deltas: a subscriber that receives one
// re-fetches the full game and roster instead of merging an incremental
// payload, so reordered or dropped notifications self-correct on the next
// fetch. That full-refetch contract is the chosen consistency strategy.
package watch

import "sync"

// Table names the store table a change touched.
type Table string

const (
	TableGames   Table = "games"
	TablePlayers Table = "players"
	TableActions Table = "actions"
)

// Change describes a committed mutation scoped to one game.
type Change struct {
	GameID string
	Table  Table
}

// subscriberBuffer bounds each subscriber channel. A slow subscriber
// drops intermediate triggers, which the refetch contract absorbs.
const subscriberBuffer = 8

// Hub routes change notifications to per-game subscribers.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan Change]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Change]struct{})}
}

// Subscribe registers interest in one game's changes. The returned cancel
// function unregisters the subscription and closes the channel.
func (h *Hub) Subscribe(gameID string) (<-chan Change, func()) {
	ch := make(chan Change, subscriberBuffer)

	h.mu.Lock()
	set, ok := h.subs[gameID]
	if !ok {
		set = make(map[chan Change]struct{})
		h.subs[gameID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[gameID]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(h.subs, gameID)
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish notifies every subscriber of the change's game. Sends never
// block: a full subscriber buffer drops the trigger.
func (h *Hub) Publish(change Change) {
	if change.GameID == "" {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[change.GameID] {
		select {
		case ch <- change:
		default:
		}
	}
}
