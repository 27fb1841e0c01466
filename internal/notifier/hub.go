package notifier

import (
	"context"
	"sync"
	"sync/atomic"

	"sfd-loan-engine/internal/metrics"
)

// AllSfds subscribes to every SFD (umbrella dashboards).
const AllSfds = "*"

// Hub keeps in-process subscribers keyed by SFD.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{subs: make(map[string]map[*Subscription]struct{}), buffer: buffer}
}

type Subscription struct {
	C       <-chan Event
	ch      chan Event
	sfdID   string
	hub     *Hub
	once    sync.Once
	dropped atomic.Int64
}

// Dropped counts events lost because the subscriber fell behind.
func (s *Subscription) Dropped() int64 { return s.dropped.Load() }

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		if set, ok := s.hub.subs[s.sfdID]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(s.hub.subs, s.sfdID)
			}
		}
		s.hub.mu.Unlock()
		close(s.ch)
	})
}

func (h *Hub) Subscribe(sfdID string) *Subscription {
	ch := make(chan Event, h.buffer)
	s := &Subscription{C: ch, ch: ch, sfdID: sfdID, hub: h}
	h.mu.Lock()
	set, ok := h.subs[sfdID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[sfdID] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (h *Hub) Subscribers(sfdID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sfdID])
}

func (h *Hub) Name() string { return "hub" }

// Deliver never blocks: a full subscriber buffer loses the event.
func (h *Hub) Deliver(_ context.Context, evt Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, key := range []string{evt.SfdID, AllSfds} {
		for s := range h.subs[key] {
			select {
			case s.ch <- evt:
			default:
				s.dropped.Add(1)
				metrics.NotifierDropped.WithLabelValues("slow_subscriber").Inc()
			}
		}
	}
	return nil
}
