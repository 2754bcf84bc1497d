package event

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
)

const subscriberBuffer = 100

type subscription struct {
	name  string
	ch    chan Event
	types map[Type]struct{}
}

func (s *subscription) wants(t Type) bool {
	if len(s.types) == 0 {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// InMemoryBus fans events out to named subscribers. Delivery never blocks
// the publisher: a subscriber whose buffer is full misses the event.
type InMemoryBus struct {
	mu   sync.RWMutex
	subs map[string]*subscription
}

func NewBus() *InMemoryBus {
	return &InMemoryBus{subs: make(map[string]*subscription)}
}

func (b *InMemoryBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if !sub.wants(e.Type) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			slog.Warn("event dropped", "subscriber", sub.name, "type", e.Type, "origin", e.Origin)
		}
	}
}

// Subscribe registers a consumer called name. With no types it receives
// every event. The returned func closes the channel and is safe to call
// more than once.
func (b *InMemoryBus) Subscribe(name string, types ...Type) (<-chan Event, func()) {
	sub := &subscription{name: name, ch: make(chan Event, subscriberBuffer)}
	if len(types) > 0 {
		sub.types = make(map[Type]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}

	key := name + "/" + uuid.NewString()
	b.mu.Lock()
	b.subs[key] = sub
	b.mu.Unlock()

	return sub.ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[key]; ok {
			delete(b.subs, key)
			close(sub.ch)
		}
	}
}

// Subscribers returns the names of the live subscriptions, sorted.
func (b *InMemoryBus) Subscribers() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.subs))
	for _, sub := range b.subs {
		names = append(names, sub.name)
	}
	sort.Strings(names)
	return names
}
