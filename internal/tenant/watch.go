package tenant

import (
	"sync"

	"fitpro-server/internal/model"
)

// hub fans gym-catalog snapshots out to subscribers. Delivery keeps only the
// latest snapshot per subscriber: a slow consumer never blocks a broadcast.
type hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan []model.Gym
}

func newHub() *hub {
	return &hub{subs: make(map[int]chan []model.Gym)}
}

// subscribe registers a new subscriber and returns its channel plus an
// unsubscribe function. Unsubscribe is idempotent and closes the channel.
func (h *hub) subscribe() (<-chan []model.Gym, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan []model.Gym, 1)
	h.subs[id] = ch

	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, unsubscribe
}

// broadcast replaces any undelivered snapshot with the latest one.
func (h *hub) broadcast(gyms []model.Gym) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case <-ch:
		default:
		}
		ch <- gyms
	}
}

func (h *hub) subscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
